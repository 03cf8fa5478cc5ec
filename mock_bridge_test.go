package goserdes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAddUsesBridgeLoadExactlyOnce(t *testing.T) {
	reg := newFakeRegistry()
	defer reg.Close()

	ctrl := gomock.NewController(t)
	bridge := NewMockBridge(ctrl)
	bridge.EXPECT().
		Load(gomock.Any(), gomock.Any()).
		Return(fakeCodec{}, nil).
		Times(1)

	h := newTestHandle(t, reg.URL, bridge)

	schema, err := h.Add(context.Background(), "mocked", -1, "AVRO", []byte(`"long"`))
	require.NoError(t, err)
	assert.NotEqual(t, int32(-1), schema.ID())

	// A second Add for the same definition must dedup without touching
	// the bridge again; Times(1) above would fail the test otherwise.
	_, err = h.Add(context.Background(), "mocked", -1, "AVRO", []byte(`"long"`))
	require.NoError(t, err)

	bridge.EXPECT().Unload(gomock.Any(), gomock.Any()).Times(1)
	h.Close()
}

func TestAddSurfacesBridgeLoadError(t *testing.T) {
	reg := newFakeRegistry()
	defer reg.Close()

	ctrl := gomock.NewController(t)
	bridge := NewMockBridge(ctrl)
	bridge.EXPECT().
		Load(gomock.Any(), gomock.Any()).
		Return(nil, assertErr("boom"))

	h := newTestHandle(t, reg.URL, bridge)
	defer h.Close()

	_, err := h.Add(context.Background(), "bad-mock", -1, "AVRO", []byte(`"string"`))
	require.Error(t, err)
	assert.Equal(t, ErrSchemaLoad, CodeOf(err))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
