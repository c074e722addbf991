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

package index

import (
	"fmt"
)

// indicates that the underlying HTTP call to the query service failed
type TransportError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Query to %s failed with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("Query to %s failed: %s", e.URL, e.Message)
}

// indicates that the query service returned a response DPS can't interpret
type InvalidResponseError struct {
	Message string
}

func (e InvalidResponseError) Error() string {
	return fmt.Sprintf("Invalid query service response: %s", e.Message)
}

// This error type is returned when an HTTPS request is redirected to an HTTP
// endpoint, downgrading the security of the connection.
type DowngradedRedirectError struct {
	Endpoint string
}

func (e DowngradedRedirectError) Error() string {
	return fmt.Sprintf("HTTPS connection redirected to HTTP endpoint %s", e.Endpoint)
}
