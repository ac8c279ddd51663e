// Package douyin provides a client for the Douyin web API.
//
// This package includes:
//   - A TLS-fingerprinted HTTP client carrying the shared header set
//   - A signing gateway that turns request parameters into a signed,
//     platform-accepted query via an embedded script evaluator
//   - Cookie snapshot management with a login-status probe
//   - Typed models over raw JSON payloads
//
// Example usage:
//
//	client, err := douyin.NewClient(douyin.Options{
//	    UserAgent: ua,
//	    Cookie:    cookieStr,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if !client.Pong() {
//	    // drive the login flow, then client.RefreshSession(cookies)
//	}
//
//	page, err := client.GetAwemeComments(ctx, awemeID, 0, "")
package douyin
