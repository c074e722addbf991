// Copyright (c) 2024 The DataONE Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// The auth package provides credentials for requests made against a
// repository. It is deliberately thin: session management belongs to the
// surrounding application, and DPS only ever forwards a token.
package auth

import (
	"fmt"
	"net/http"
)

// Provider supplies the Authorization header value for outgoing repository
// requests. An empty value means the request is made anonymously.
type Provider interface {
	AuthorizationHeader() string
}

// a Provider for anonymous (public) access
type AnonymousProvider struct{}

func (p AnonymousProvider) AuthorizationHeader() string {
	return ""
}

// a Provider holding a fixed bearer token (e.g. a DataONE JWT)
type TokenProvider struct {
	Token string
}

func (p TokenProvider) AuthorizationHeader() string {
	if p.Token == "" {
		return ""
	}
	return fmt.Sprintf("Bearer %s", p.Token)
}

// Applies the provider's credentials to the given request. A no-op for
// anonymous providers.
func Apply(p Provider, req *http.Request) {
	if p == nil {
		return
	}
	if header := p.AuthorizationHeader(); header != "" {
		req.Header.Set("Authorization", header)
	}
}
