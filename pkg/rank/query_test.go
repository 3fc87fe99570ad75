// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnhanceQuery_HandleHTTPWithoutProcessingContext(t *testing.T) {
	got := EnhanceQuery("handle http requests")
	assert.Equal(t, "function that sends makes HTTP requests GET POST PUT DELETE PATCH", got)
}

func TestEnhanceQuery_HandleHTTPWithProcessingContext(t *testing.T) {
	got := EnhanceQuery("handle http response redirect")
	assert.Contains(t, got, "HTTP request function")
}

func TestEnhanceQuery_ExplicitSendIntent(t *testing.T) {
	got := EnhanceQuery("make http request to api")
	assert.Contains(t, got, "function that sends or makes HTTP requests")
}

func TestEnhanceQuery_GenericHTTP(t *testing.T) {
	got := EnhanceQuery("api client")
	assert.Equal(t, "HTTP request function: api client", got)
}

func TestEnhanceQuery_JSON(t *testing.T) {
	assert.Equal(t, "JSON parsing function: parse json body", EnhanceQuery("parse json body"))
}

func TestEnhanceQuery_Auth(t *testing.T) {
	assert.Equal(t, "authentication function: login flow", EnhanceQuery("login flow"))
}

func TestEnhanceQuery_FileHandling(t *testing.T) {
	assert.Equal(t, "file handling function: save to disk", EnhanceQuery("save to disk"))
}

func TestEnhanceQuery_DefaultFallback(t *testing.T) {
	assert.Equal(t, "function or method that sorts a list", EnhanceQuery("sorts a list"))
}
