/*
Package portalsdk is a client for the graduate school student portal backend.

# Overview

A Client owns three pieces:

  - SessionStore: the single source of truth for the access token, username
    and first-session flag, mirrored into a Persister so it survives restarts.
  - The request pipeline: every backend call carries the current bearer token.
    An authorization failure (401 or 403) triggers exactly one refresh and one
    retry of the original call; if the refresh fails the session is cleared
    and the Navigator is sent to the login view.
  - Guard: the route protection state machine evaluated on every navigation.

Build a Client once and pass it by reference:

	client, err := portalsdk.NewClient("http://localhost:8080", portalsdk.Options{
		Persister: store,
		Navigator: nav,
	})
	if err != nil {
		return err
	}
	if err := client.Restore(ctx); err != nil {
		return err
	}

	resp, err := client.Login(ctx, "2024001", "secret")
	if err != nil {
		fmt.Println(portalsdk.UserMessage(err, false))
		return err
	}
	next := portalsdk.NextViewAfterLogin(resp) // "/change-password" on first session

	grades, err := client.GetGrades(ctx) // token expiry is invisible here

# Errors

Every failed call returns an *APIError whose Kind classifies it
(connectivity, timeout, invalid credentials, validation, server, ...).
UserMessage renders it for a form; development builds include the target URL.
When the one-shot refresh cannot recover a session the error also matches
ErrSessionExpired.

# Concurrency

A Client may be shared between goroutines. Concurrent calls that fail
authorization at the same time each refresh independently; the last
successful refresh wins.
*/
package portalsdk
