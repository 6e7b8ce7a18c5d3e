// Package api defines the JSON wire types shared by the daemon's HTTP
// surface and the CLI client, plus the conversions from internal models.
package api
