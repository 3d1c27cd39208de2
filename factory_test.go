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

func TestFactoryNewBufferOpenBufferRoundTrip(t *testing.T) {
	s, err := noproto.FromIDL(personIDL)
	require.NoError(t, err)
	f := noproto.NewFactory(s)
	require.Same(t, s, f.Schema())

	buf, err := f.NewBuffer()
	require.NoError(t, err)
	require.NoError(t, buf.Set("Ada Lovelace", "name"))

	reopened, err := f.OpenBuffer(buf.Bytes())
	require.NoError(t, err)
	name, err := reopened.Get("name")
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", name)
}

func TestFactoryOpenBufferRefIsReadOnly(t *testing.T) {
	s, err := noproto.FromIDL(personIDL)
	require.NoError(t, err)
	f := noproto.NewFactory(s)

	buf, err := f.NewBuffer()
	require.NoError(t, err)
	require.NoError(t, buf.Set("Grace Hopper", "name"))

	ref := f.OpenBufferRef(buf.Bytes())
	name, err := ref.Get("name")
	require.NoError(t, err)
	require.Equal(t, "Grace Hopper", name)

	err = ref.Set("someone else", "name")
	require.Error(t, err)
	require.ErrorIs(t, err, noproto.ErrImmutable)
}

// scenario 8: pack a buffer, open it through the packed opener, read a
// field back; opening with a wrong magic byte yields BufferMalformed.
func TestPackBufferUnpackBufferRoundTrip(t *testing.T) {
	s, err := noproto.FromIDL(personIDL)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)
	require.NoError(t, buf.Set("Billy Joel", "name"))
	require.NoError(t, buf.Set("first tag", "tags", "0"))

	packed, err := noproto.PackBuffer(buf)
	require.NoError(t, err)

	reopened, reopenedSchema, err := noproto.UnpackBuffer(packed)
	require.NoError(t, err)
	require.NotNil(t, reopenedSchema)

	name, err := reopened.Get("name")
	require.NoError(t, err)
	require.Equal(t, "Billy Joel", name)

	tag, err := reopened.Get("tags", "0")
	require.NoError(t, err)
	require.Equal(t, "first tag", tag)
}

func TestFactoryPackBufferMatchesTopLevelHelper(t *testing.T) {
	s, err := noproto.FromIDL(personIDL)
	require.NoError(t, err)
	f := noproto.NewFactory(s)
	buf, err := f.NewBuffer()
	require.NoError(t, err)
	require.NoError(t, buf.Set("Margaret Hamilton", "name"))

	packed, err := f.PackBuffer(buf)
	require.NoError(t, err)

	reopened, _, err := noproto.UnpackBuffer(packed)
	require.NoError(t, err)
	name, err := reopened.Get("name")
	require.NoError(t, err)
	require.Equal(t, "Margaret Hamilton", name)
}

func TestUnpackBufferRejectsWrongMagicByte(t *testing.T) {
	s, err := noproto.FromIDL(personIDL)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	packed, err := noproto.PackBuffer(buf)
	require.NoError(t, err)
	packed[0] = 0xFF

	_, _, err = noproto.UnpackBuffer(packed)
	require.Error(t, err)
	require.ErrorIs(t, err, noproto.ErrBufferMalformed)
}

func TestUnpackBufferRejectsTruncatedSchema(t *testing.T) {
	s, err := noproto.FromIDL(personIDL)
	require.NoError(t, err)
	buf, err := noproto.NewBuffer(s)
	require.NoError(t, err)

	packed, err := noproto.PackBuffer(buf)
	require.NoError(t, err)

	_, _, err = noproto.UnpackBuffer(packed[:2])
	require.Error(t, err)
	require.ErrorIs(t, err, noproto.ErrBufferMalformed)
}

func TestFactoryExportSchemaRoundTrips(t *testing.T) {
	s, err := noproto.FromIDL(personIDL)
	require.NoError(t, err)
	f := noproto.NewFactory(s)

	byBytes, err := noproto.FromBytes(f.ExportSchemaBytes())
	require.NoError(t, err)
	require.Equal(t, f.ExportSchemaIDL(), byBytes.IDL())

	jsonSchema := f.ExportSchemaJSON
	schemaJSON, err := jsonSchema()
	require.NoError(t, err)
	byJSON, err := noproto.FromJSON(schemaJSON)
	require.NoError(t, err)
	require.Equal(t, f.ExportSchemaIDL(), byJSON.IDL())
}
