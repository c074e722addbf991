//go:build !docs
// +build !docs

package services

import (
	"github.com/gorilla/mux"
)

var HaveDocEndpoints bool = false

func AddDocEndpoints(r *mux.Router) {
}
