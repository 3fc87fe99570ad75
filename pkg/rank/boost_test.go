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

	"github.com/kraklabs/codesearch/pkg/entity"
)

func TestHTTPBoost_NonHTTPQueryIsNeutral(t *testing.T) {
	e := entity.CodeEntity{FilePath: "api.py", Name: "get"}
	assert.Equal(t, 1.0, httpBoost("sort a list", e))
}

func TestHTTPBoost_APIRequestFunctionBoosted(t *testing.T) {
	e := entity.CodeEntity{FilePath: "requests/api.py", Name: "post"}
	assert.Equal(t, 1.5, httpBoost("make an http request", e))
}

func TestHTTPBoost_APIFileNonRequestFunctionNeutral(t *testing.T) {
	e := entity.CodeEntity{FilePath: "requests/api.py", Name: "helper"}
	assert.Equal(t, 1.0, httpBoost("make an http request", e))
}

func TestHTTPBoost_SessionsSendBoosted(t *testing.T) {
	e := entity.CodeEntity{FilePath: "requests/sessions.py", Name: "send"}
	assert.Equal(t, 1.5, httpBoost("http request", e))
}

func TestHTTPBoost_AdaptersSendBoosted(t *testing.T) {
	e := entity.CodeEntity{FilePath: "requests/adapters.py", Name: "send"}
	assert.Equal(t, 1.3, httpBoost("http request", e))
}

func TestHTTPBoost_HandlersAndTestsPenalized(t *testing.T) {
	assert.Equal(t, 0.7, httpBoost("http request", entity.CodeEntity{Name: "handle_request"}))
	assert.Equal(t, 0.7, httpBoost("http request", entity.CodeEntity{Name: "test_request"}))
}
