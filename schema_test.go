// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package noproto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noproto-go/noproto"
)

const personIDL = `struct({fields:{name:string(),age:u16({default:0}),tags:list({of:string()})}})`

func TestFromIDLRoundTripsThroughBytesAndJSON(t *testing.T) {
	s, err := noproto.FromIDL(personIDL)
	require.NoError(t, err)

	s2, err := noproto.FromBytes(s.Bytes())
	require.NoError(t, err)
	require.Equal(t, s.IDL(), s2.IDL())

	j, err := s.JSON()
	require.NoError(t, err)
	s3, err := noproto.FromJSON(j)
	require.NoError(t, err)
	require.Equal(t, s.IDL(), s3.IDL())
}

func TestFromIDLRejectsMalformedSchema(t *testing.T) {
	_, err := noproto.FromIDL("not a valid call at all {{{")
	require.Error(t, err)
	require.ErrorIs(t, err, noproto.ErrSchemaMalformed)
}

func TestWithMaxDepthRejectsOverlyNestedSchema(t *testing.T) {
	nested := `struct({name:"Outer",fields:{child:struct({name:"Leaf",fields:{v:u8()}})}})`

	_, err := noproto.FromIDL(nested, noproto.WithMaxDepth(1))
	require.Error(t, err)
	require.ErrorIs(t, err, noproto.ErrSchemaMalformed)

	_, err = noproto.FromIDL(nested, noproto.WithMaxDepth(255))
	require.NoError(t, err)
}
