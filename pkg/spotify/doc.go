// Package spotify provides a small read-only client for the Spotify Web API.
//
// # Overview
//
// The package covers what a library export needs: obtaining a bearer
// token through the OAuth implicit grant, and reading cursor-paginated
// collections with bounded retries. Catalog records (tracks, albums,
// playlists) are returned as raw JSON and never interpreted.
//
// # Authentication
//
// The implicit grant needs no client secret. The Authorizer opens the
// authorization page in the user's browser and listens on a fixed
// loopback port for the redirect:
//
//	authorizer, err := spotify.NewAuthorizer(spotify.AuthConfig{
//	    ClientID: "your-client-id",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := authorizer.Authorize(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The redirect URI, http://127.0.0.1:43019/redirect by default, must be
// registered for the client ID exactly as sent. Authorize blocks until
// the user finishes (or aborts) the login in the browser; cancel ctx to
// stop waiting.
//
// Login combines both steps and returns a ready Client.
//
// # Reading the catalog
//
//	client, err := spotify.NewClient(spotify.Config{Token: token})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	me, err := client.Me(ctx)
//
//	// Every liked track, following "next" links until the last page
//	tracks, err := client.List(ctx, "me/tracks", url.Values{"limit": {"50"}})
//
// Paths are resolved against the base URL unless they already start
// with it, so the href of a nested collection can be passed as is.
//
// # Error Handling
//
// Each request is tried up to three times with a fixed two second pause.
// When every attempt fails the error is a *FetchError, which matches
// ErrRetriesExhausted:
//
//	if errors.Is(err, spotify.ErrRetriesExhausted) {
//	    // nothing useful can be exported
//	}
//
// A non-2xx response is reported as *StatusError, and a callback that
// arrives without an access token as *AuthError.
//
// # Configuration
//
//	client, err := spotify.NewClient(spotify.Config{
//	    Token:            token,
//	    HTTPClient:       &http.Client{Timeout: 30 * time.Second},
//	    MaxAttempts:      5,
//	    RetryDelay:       time.Second,
//	    ProgressInterval: 10 * time.Second,
//	    Progress: func(loaded, total int) {
//	        fmt.Printf("%d/%d\n", loaded, total)
//	    },
//	    Logger: myLogger, // Implements spotify.Logger interface
//	})
package spotify
