// Package auth models who is reading.
//
// Sign-in itself is handled by the external identity provider. This package
// keeps the app-level sign-in state as an explicit variant (Loading,
// Anonymous, Authenticated) and turns an access token into the Identity that
// scopes local progress and bookmarks.
//
// # Usage
//
//	session := auth.NewSession()
//	session.SignedIn(profile)
//	id := session.Identity() // auth.User(profile.ID)
//
// In the HTTP bridge:
//
//	router.Use(auth.NewMiddleware(cfg.Auth.JWTSecret, logger).Handler())
//	id := auth.GetIdentity(c)
package auth
