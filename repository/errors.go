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

package repository

import "fmt"

// indicates a repository endpoint that is not a valid URL
type InvalidEndpointError struct {
	URL string
}

func (e InvalidEndpointError) Error() string {
	return fmt.Sprintf("invalid repository endpoint URL: %s", e.URL)
}

// indicates an object the repository has no record of
type ObjectNotFoundError struct {
	Pid string
}

func (e ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object not found: %s", e.Pid)
}

// indicates an object we lack permission to read or write
type UnauthorizedError struct {
	Pid string
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf("not authorized to access object: %s", e.Pid)
}

// indicates an unexpected response from the repository
type TransportError struct {
	URL        string
	StatusCode int
}

func (e TransportError) Error() string {
	return fmt.Sprintf("repository request to %s failed with status %d", e.URL, e.StatusCode)
}
