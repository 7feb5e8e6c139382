// Package crisisportal is a Go client for the crisis portal HTTP API.
//
// The portal turns a crisis worker's free-text query into structured search
// filters and runs resource searches against the resource backend.
//
//	client, _ := crisisportal.New("http://localhost:8080",
//	    crisisportal.WithAPIKey(os.Getenv("PORTAL_API_KEY")),
//	)
//	res, _ := client.ExtractFilters(ctx, "spanish speaking therapist near 90012", nil)
//	page, _ := client.Search(ctx, res.Filters)
//	detail, _ := client.GetResource(ctx, page.Items[0].ID)
//
// Failed calls return *APIError carrying the HTTP status and the server's
// error message. Use errors.As to inspect it.
package crisisportal
