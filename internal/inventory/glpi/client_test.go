package glpi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeGLPI serves two computers and processor/memory items for computer 7.
func fakeGLPI(t *testing.T, killed *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/apirest.php/initSession", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("App-Token") != "app" || r.Header.Get("Authorization") != "user_token usr" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`["ERROR_LOGIN_PARAMETERS_MISSING"]`))
			return
		}
		_, _ = w.Write([]byte(`{"session_token":"sess-1"}`))
	})
	mux.HandleFunc("/apirest.php/killSession", func(w http.ResponseWriter, r *http.Request) {
		killed.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/apirest.php/Computer", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Session-Token") != "sess-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("expand_dropdowns") != "true" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("range") != "0-49" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":7,"name":"PC-7"},{"id":8,"name":""}]`))
	})
	mux.HandleFunc("/apirest.php/Computer/7/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "Item_DeviceProcessor"):
			_, _ = w.Write([]byte(`[{"id":1,"designation":"Core i5"}]`))
		case strings.HasSuffix(r.URL.Path, "Item_DeviceMemory"):
			_, _ = w.Write([]byte(`[{"id":2,"size":8192},{"id":3,"size":8192}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	return httptest.NewServer(mux)
}

func TestSession_ComputersAndComponents(t *testing.T) {
	var killed atomic.Int32
	srv := fakeGLPI(t, &killed)
	defer srv.Close()

	c := NewClient(srv.URL+"/apirest.php/", "app", "usr", srv.Client())
	ctx := context.Background()

	sess, err := c.Open(ctx)
	require.NoError(t, err)

	computers, err := sess.Computers(ctx, 0, 50)
	require.NoError(t, err)
	require.Len(t, computers, 2)

	empty, err := sess.Computers(ctx, 50, 50)
	require.NoError(t, err)
	require.Empty(t, empty)

	comps, err := sess.Components(ctx, 7)
	require.NoError(t, err)
	require.Len(t, comps, 2)
	require.Len(t, comps["Item_DeviceMemory"], 2)
	_, hasDisk := comps["Item_DeviceHardDrive"]
	require.False(t, hasDisk, "404 item types are omitted")

	require.NoError(t, sess.Close(ctx))
	require.NoError(t, sess.Close(ctx))
	require.Equal(t, int32(1), killed.Load(), "killSession is called once")
}

func TestOpen_Errors(t *testing.T) {
	var killed atomic.Int32
	srv := fakeGLPI(t, &killed)
	defer srv.Close()

	_, err := NewClient(srv.URL+"/apirest.php", "app", "wrong", srv.Client()).Open(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusUnauthorized, se.Code)

	noToken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer noToken.Close()
	_, err = NewClient(noToken.URL, "app", "usr", noToken.Client()).Open(context.Background())
	require.ErrorIs(t, err, ErrNoSessionToken)
}

func TestToDevice(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 42,
		"name": "",
		"entities_id": "Root entity > Campus",
		"otherserial": "PAT-0042",
		"serial": "SN123",
		"locations_id": {"completename": "Bloco A > Sala 3", "id": 5},
		"states_id": 0
	}`)
	d, ok := ToDevice(raw)
	require.True(t, ok)
	require.Equal(t, int64(42), d.GLPIID)
	require.Equal(t, "Computer-42", d.Name)
	require.Equal(t, "PAT-0042", d.AssetTag)
	require.Equal(t, "Bloco A > Sala 3", d.Location)
	require.Equal(t, "0", d.Status)
	require.JSONEq(t, string(raw), string(d.GLPIData))

	_, ok = ToDevice(json.RawMessage(`{"name":"no id"}`))
	require.False(t, ok)
	_, ok = ToDevice(json.RawMessage(`{"id":"12"}`))
	require.True(t, ok)
}

func TestToComponent(t *testing.T) {
	c := ToComponent("Item_DeviceHardDrive", json.RawMessage(`{"deviceharddrives_id":"SSD 480GB","manufacturers_id":{"name":"Kingston"},"size":480000}`))
	require.Equal(t, "HardDrive", c.ItemType)
	require.Equal(t, "SSD 480GB", c.Name)
	require.Equal(t, "Kingston", c.Manufacturer)
	require.Equal(t, "480000", c.Capacity)

	c = ToComponent("Item_DeviceProcessor", json.RawMessage(`{"designation":"Ryzen 5","name":"ignored"}`))
	require.Equal(t, "Ryzen 5", c.Name)
}
