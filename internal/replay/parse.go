package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"liquidityCore/internal/model"
)

// ReadOps loads operation records from a JSONL file. Blank lines are
// skipped; a malformed line is an error with its line number.
func ReadOps(path string) ([]model.OpRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ops file: %w", err)
	}
	defer file.Close()

	ops := make([]model.OpRecord, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var op model.OpRecord
		if err := json.Unmarshal([]byte(text), &op); err != nil {
			return nil, fmt.Errorf("parse ops line %d: %w", line, err)
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ops file: %w", err)
	}

	return ops, nil
}

// ParseAccount validates a hex account address and returns its checksummed
// form, so share-ledger keys are consistent regardless of input casing.
func ParseAccount(input string) (string, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return "", fmt.Errorf("invalid account: %s", input)
	}
	return common.HexToAddress(input).Hex(), nil
}

// ParseAmount converts a decimal string into a big.Int.
func ParseAmount(field, input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	value, ok := new(big.Int).SetString(input, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %s", field, input)
	}
	return value, nil
}
