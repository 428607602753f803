package host

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinishReturnsIdleOn202(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(srv.URL)
	req, err := c.Finish(context.Background(), "accept")
	require.NoError(t, err)
	require.Nil(t, req)
}

func TestFinishDecodesAdvanceRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/finish", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "accept", body["status"])

		resp := Request{
			RequestType: RequestAdvance,
			Data: RequestMetadata{
				Metadata: &struct {
					MsgSender   string `json:"msg_sender"`
					InputIndex  int64  `json:"input_index"`
					BlockNumber int64  `json:"block_number"`
					Timestamp   int64  `json:"timestamp"`
				}{MsgSender: "0xsender", InputIndex: 7},
				Payload: "0x7b7d",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := New(srv.URL)
	req, err := c.Finish(context.Background(), "accept")
	require.NoError(t, err)
	require.NotNil(t, req)
	require.Equal(t, RequestAdvance, req.RequestType)
	require.Equal(t, "0xsender", req.Data.Metadata.MsgSender)
	require.Equal(t, int64(7), req.Data.Metadata.InputIndex)

	payload, err := DecodePayload(req)
	require.NoError(t, err)
	require.Equal(t, []byte(`{}`), payload)
}

func TestFinishReturnsErrorOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Finish(context.Background(), "reject")
	require.Error(t, err)
}

func TestNoticeAndReportSendHexPayload(t *testing.T) {
	var gotPath string
	var gotPayload string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotPayload = body["payload"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.Notice(context.Background(), []byte("hi")))
	require.Equal(t, "/notice", gotPath)
	require.Equal(t, "0x6869", gotPayload)

	require.NoError(t, c.Report(context.Background(), []byte("ok")))
	require.Equal(t, "/report", gotPath)
}

func TestVoucherSendsDestinationAndPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/voucher", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "0x0000000000000000000000000000000000000001", body["destination"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	var dest [20]byte
	dest[19] = 1
	c := New(srv.URL)
	require.NoError(t, c.Voucher(context.Background(), dest, []byte("calldata")))
}

func TestDecodePayloadRejectsMalformedHex(t *testing.T) {
	req := &Request{Data: RequestMetadata{Payload: "0xzz"}}
	_, err := DecodePayload(req)
	require.Error(t, err)
}
