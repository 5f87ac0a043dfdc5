// Package auth provides the API key middleware guarding assetboard's REST
// endpoints.
package auth
