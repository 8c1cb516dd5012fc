// Package crypt implements the legacy password transforms: a reversible
// substitution cipher used to obfuscate passwords in transit and the
// salted md5 digest stored at rest. Neither is cryptographically secure;
// both are kept bit-for-bit compatible with the hashes and clients that
// already exist. Transport security is expected from a TLS terminator in
// front of the service.
package crypt

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// alphabet is the fixed character set the substitution cipher operates
// on. Characters outside the alphabet pass through unchanged.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZäöüÄÖÜ1234567890,;.:-_#'+*~!\"§$%&/()=?ß`^°{[]}\\'/- \n\t"

// TransitKey is the shared secret clients obfuscate passwords with.
// Symmetric by construction, so it cannot be kept out of the client.
const TransitKey = "vcuh31250hvcsojnl312vcnlsgr329fdsip"

// passwordSalt is appended to the recovered password before hashing.
const passwordSalt = "ch48cho2nlc"

var alphabetRunes = []rune(alphabet)

func runeIndex(r rune) int {
	for i, a := range alphabetRunes {
		if a == r {
			return i
		}
	}
	return -1
}

func shift(text, key string, decrypt bool) string {
	keyRunes := []rune(key)
	var sb strings.Builder
	for i, r := range []rune(text) {
		charIndex := runeIndex(r)
		passIndex := runeIndex(keyRunes[i%len(keyRunes)])
		if charIndex < 0 || passIndex < 0 {
			sb.WriteRune(r)
			continue
		}
		if decrypt {
			charIndex -= passIndex
			charIndex += len(alphabetRunes)
		} else {
			charIndex += passIndex
		}
		charIndex %= len(alphabetRunes)
		sb.WriteRune(alphabetRunes[charIndex])
	}
	return sb.String()
}

// Encrypt obfuscates text with a Vigenere-style substitution over the
// fixed alphabet. It is reversible by Decrypt with the same key.
func Encrypt(text, key string) string {
	return shift(text, key, false)
}

// Decrypt reverses Encrypt.
func Decrypt(text, key string) string {
	return shift(text, key, true)
}

// PasswordHash derives the stored credential from a transit-obfuscated
// password: reverse the obfuscation, append the fixed salt, md5, render
// as lowercase hex. Intermediate buffers holding the recovered password
// are zeroed before returning. md5 is a legacy constraint: the digest
// must match hashes already in the users table.
func PasswordHash(obfuscated string) string {
	plain := []byte(Decrypt(obfuscated, TransitKey))
	salted := make([]byte, 0, len(plain)+len(passwordSalt))
	salted = append(salted, plain...)
	salted = append(salted, passwordSalt...)

	sum := md5.Sum(salted)

	for i := range plain {
		plain[i] = 0
	}
	for i := range salted {
		salted[i] = 0
	}

	return hex.EncodeToString(sum[:])
}
