// Package cookie manages the device identity cookie. The device ID
// scopes session records per browser, so the cookie is HttpOnly and,
// with a secret configured, HMAC-signed against tampering.
package cookie
