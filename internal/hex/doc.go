// Package hex provides a client for the Hex project run API.
//
// The client covers four endpoints: trigger a run, read a run's status,
// cancel a run and list a project's runs. Every call opens a fresh
// authenticated session from the credentials, performs exactly one HTTP
// request and releases the session before returning. Nothing is retried.
//
// Responses are unpacked into typed payloads. Non-2xx responses become
// *APIError values carrying the server's JSON error body verbatim, and
// network failures become *TransportError values.
//
// Example usage:
//
//	creds, _ := credentials.New("app.hex.tech", token)
//	client, err := hex.NewClient(creds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	run, err := client.RunProject(ctx, projectID, hex.RunProjectRequest{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	status, err := client.GetRunStatus(ctx, projectID, run.RunID)
package hex
