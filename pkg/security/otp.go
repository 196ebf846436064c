package security

import "fmt"

var otpDigits = []rune("0123456789")

// GenerateOTP produces a random numeric one-time password of the given
// length. Leading zeros are allowed so the keyspace stays uniform.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	result := make([]rune, length)
	for i := 0; i < length; i++ {
		idx, err := randInt(len(otpDigits))
		if err != nil {
			return "", err
		}
		result[i] = otpDigits[idx]
	}
	return string(result), nil
}
