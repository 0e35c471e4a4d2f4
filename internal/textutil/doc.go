// Package textutil holds small string helpers shared by the playlist and CLI.
package textutil
