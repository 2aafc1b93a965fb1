package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const derivativeSupplyAsset = "derivative"

func accountKey(account common.Address) string {
	return account.Hex()
}

func parseAccount(value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("sqlstore: stored account %q is not a hex address", value)
	}
	return common.HexToAddress(trimmed), nil
}

func decodeUint256(value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return new(uint256.Int), nil
	}
	parsed, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: stored amount %q: %w", value, err)
	}
	return parsed, nil
}

func encodeUint256(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	return value.Dec()
}

func decodeUint64(value string) (uint64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: stored amount %q: %w", value, err)
	}
	return parsed, nil
}

func encodeUint64(value uint64) string {
	return strconv.FormatUint(value, 10)
}
