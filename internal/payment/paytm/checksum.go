package paytm

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

const (
	checksumIV    = "@@@@&&&&####$$$$"
	saltLength    = 4
	saltAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	checksumField = "CHECKSUMHASH"
)

var errBadKey = errors.New("paytm merchant key must be 16, 24 or 32 bytes")

// GenerateSignature signs body with the merchant key: sha256(body|salt)+salt, AES-CBC encrypted and base64 encoded.
func GenerateSignature(body, key string) (string, error) {
	salt, err := randomSalt()
	if err != nil {
		return "", err
	}
	return signWithSalt(body, key, salt)
}

// VerifySignature checks a signature produced by GenerateSignature.
func VerifySignature(body, key, signature string) bool {
	plain, err := decrypt(signature, key)
	if err != nil || len(plain) < saltLength {
		return false
	}
	salt := plain[len(plain)-saltLength:]
	expected := hashWithSalt(body, salt) + salt
	return subtle.ConstantTimeCompare([]byte(expected), []byte(plain)) == 1
}

// GenerateSignatureByParams signs form parameters, sorted by key and joined with "|".
func GenerateSignatureByParams(params map[string]string, key string) (string, error) {
	return GenerateSignature(paramString(params), key)
}

func VerifySignatureByParams(params map[string]string, key, signature string) bool {
	return VerifySignature(paramString(params), key, signature)
}

func paramString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == checksumField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		v := params[k]
		if strings.EqualFold(v, "null") {
			v = ""
		}
		values = append(values, v)
	}
	return strings.Join(values, "|")
}

func signWithSalt(body, key, salt string) (string, error) {
	return encrypt(hashWithSalt(body, salt)+salt, key)
}

func hashWithSalt(body, salt string) string {
	sum := sha256.Sum256([]byte(body + "|" + salt))
	return hex.EncodeToString(sum[:])
}

func randomSalt() (string, error) {
	out := make([]byte, saltLength)
	max := big.NewInt(int64(len(saltAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		out[i] = saltAlphabet[n.Int64()]
	}
	return string(out), nil
}

func encrypt(plain, key string) (string, error) {
	block, err := newCipher(key)
	if err != nil {
		return "", err
	}
	padded := pkcs7Pad([]byte(plain), block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, []byte(checksumIV)).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

func decrypt(encoded, key string) (string, error) {
	block, err := newCipher(key)
	if err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	if len(data) == 0 || len(data)%block.BlockSize() != 0 {
		return "", errors.New("signature is not a whole number of blocks")
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, []byte(checksumIV)).CryptBlocks(out, data)
	plain, err := pkcs7Unpad(out, block.BlockSize())
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func newCipher(key string) (cipher.Block, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, errBadKey
	}
	return aes.NewCipher([]byte(key))
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty payload")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
