// Package randompkg provides functionality gor generating random applications common items.
package randompkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz"
	digits   = "0123456789"
)

// Intn is a shortcut for generating a random integer between 0 and max using crypto/rand.
func Intn(max int) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}

	return nBig.Int64()
}

// IntBetween generates a random integer between min and max inclusive.
func IntBetween(min, max int) int32 {
	return int32(int64(min) + Intn(max-min+1))
}

// Bool generates a random boolean.
func Bool() bool {
	return Intn(2) == 1
}

// String generates a random string of length n.
func String(n int) string {
	return fromAlphabet(alphabet, n)
}

func fromAlphabet(a string, n int) string {
	var sb strings.Builder

	k := len(a)

	for i := 0; i < n; i++ {
		c := a[Intn(k)]

		_ = sb.WriteByte(c) // The returned err is always nil.
	}

	return sb.String()
}

// Owner generates a random owner name.
func Owner() string {
	return String(6)
}

// Concept generates a random transaction concept.
func Concept() string {
	return fmt.Sprintf("%s %s", String(8), String(5))
}

// Phone generates a random ten digits phone number.
func Phone() string {
	return "3" + fromAlphabet(digits, 9)
}

// MoneyAmountBetween generates a random amount of money between min and max
// cents, returned with two decimals.
func MoneyAmountBetween(minCents, maxCents int) decimal.Decimal {
	return decimal.New(int64(IntBetween(minCents, maxCents)), -2)
}

// TransactionType generates a random transaction type.
func TransactionType() string {
	types := []string{"Ingreso", "Egreso"}
	return types[Intn(len(types))]
}

// Email generates a random email.
func Email() string {
	return fmt.Sprintf("%s@email.com", String(10))
}
