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

package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_CamelCaseSplit(t *testing.T) {
	assert.Equal(t, []string{"fetch", "user", "data"}, Tokenize("fetchUserData"))
}

func TestTokenize_AcronymBoundary(t *testing.T) {
	assert.Equal(t, []string{"http", "server", "handler"}, Tokenize("HTTPServerHandler"))
}

func TestTokenize_Separators(t *testing.T) {
	assert.Equal(t, []string{"user", "repository", "save"}, Tokenize("user_repository.save"))
}

func TestTokenize_StripsPunctuation(t *testing.T) {
	assert.Equal(t, []string{"parse", "json", "string"}, Tokenize("parse(json_string)!"))
}

func TestTokenize_DropsShortTokens(t *testing.T) {
	toks := Tokenize("a b do it")
	assert.Equal(t, []string{"do", "it"}, toks)
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("   "))
}
