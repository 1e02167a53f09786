// Package delegatesdk is the Go client for the delegate service.
//
// The wire types in this package are shared with the server, so a response
// decoded here has exactly the shape the handlers wrote.
//
// Reads need no credential:
//
//	c := delegatesdk.NewClient("http://localhost:8080")
//	apps, err := c.ListApps(ctx, "0x1111111111111111111111111111111111111111")
//
// Writes are authenticated with a credential issued by the service itself:
//
//	sess, err := c.CreateSession(ctx)
//	cred, err := c.IssueCredential(ctx, sess.SessionID, delegatesdk.IssueCredentialRequest{
//		Audience:         []string{"delegate"},
//		ExpiresInMinutes: 10,
//	})
//	app, err := c.WithToken(cred.Credential).RegisterApp(ctx, delegatesdk.RegisterAppRequest{
//		Name:        "Tool X",
//		Description: "a tool that does things",
//	})
//
// Failed calls return *APIError, which carries the HTTP status and the
// service's error code.
package delegatesdk
