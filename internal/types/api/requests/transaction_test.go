package requests

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRequest_AuthorizationListPresence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "absent", body: `{"to":"0x00000000000000000000000000000000000000aa"}`, want: false},
		{name: "null", body: `{"authorizationList":null}`, want: false},
		{name: "empty list", body: `{"authorizationList":[]}`, want: true},
		{
			name: "populated",
			body: `{"authorizationList":[{"chainId":"0x1","address":"0x00000000000000000000000000000000000000aa","nonce":"0x0","yParity":"0x0","r":"0x1","s":"0x1"}]}`,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req TransactionRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.IsDelegationSetting())
		})
	}
}

func TestTransactionRequest_CallData(t *testing.T) {
	input := hexutil.Bytes{0x01}
	data := hexutil.Bytes{0x02}

	assert.Nil(t, (&TransactionRequest{}).CallData())
	assert.Equal(t, []byte{0x02}, (&TransactionRequest{Data: &data}).CallData())
	assert.Equal(t, []byte{0x01}, (&TransactionRequest{Input: &input, Data: &data}).CallData())
}

func TestTransactionRequest_ToCallMsg(t *testing.T) {
	from := common.HexToAddress("0x01")
	to := common.HexToAddress("0x02")
	input := hexutil.Bytes{0xde, 0xad}
	tip := (*hexutil.Big)(common.Big1)

	req := TransactionRequest{
		From:                 &from,
		To:                   &to,
		Input:                &input,
		MaxPriorityFeePerGas: tip,
	}

	msg := req.ToCallMsg()
	assert.Equal(t, from, msg.From)
	assert.Equal(t, &to, msg.To)
	assert.Equal(t, []byte{0xde, 0xad}, msg.Data)
	assert.Nil(t, msg.GasTipCap)
	assert.Nil(t, msg.Value)
}
