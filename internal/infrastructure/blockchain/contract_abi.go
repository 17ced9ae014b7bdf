package blockchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	EventTokenTransferred = "TokenTransferred"
	EventTokenDeposited   = "TokenDeposited"
	EventTokenWithdrawn   = "TokenWithdrawn"

	methodGetPot = "getPot"
)

// KaiaPayABI covers the events and views of the KaiaPay vault contract the backend reads
const KaiaPayABI = `[
  {"type":"event","name":"TokenTransferred","anonymous":false,"inputs":[
    {"name":"from","type":"address","indexed":true},
    {"name":"to","type":"address","indexed":true},
    {"name":"token","type":"address","indexed":false},
    {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"TokenDeposited","anonymous":false,"inputs":[
    {"name":"from","type":"address","indexed":true},
    {"name":"to","type":"address","indexed":true},
    {"name":"token","type":"address","indexed":false},
    {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"TokenWithdrawn","anonymous":false,"inputs":[
    {"name":"from","type":"address","indexed":true},
    {"name":"to","type":"address","indexed":true},
    {"name":"token","type":"address","indexed":false},
    {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"function","name":"getPot","stateMutability":"view","inputs":[
    {"name":"user","type":"address"},
    {"name":"token","type":"address"}],
   "outputs":[
    {"name":"balance","type":"uint256"},
    {"name":"deadline","type":"uint256"},
    {"name":"owner","type":"address"}]}
]`

var kaiaPayABI = mustParseABI(KaiaPayABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
