package user

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// argon2idのパラメーター。
const (
	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
	argonKeyLen  = 32
)

// PasswordHasher はパスワードの一方向ハッシュ化と照合を行う。
type PasswordHasher interface {
	Hash(password string) string
	Verify(password, hash string) bool
}

// Argon2Hasher はサーバー側のソルトを使うargon2idのハッシュ関数。
// 同じパスワードとソルトからは常に同じハッシュが得られる。
type Argon2Hasher struct {
	salt []byte
}

var _ PasswordHasher = (*Argon2Hasher)(nil)

// NewArgon2Hasher はソルトを指定してハッシュ関数を生成する。
func NewArgon2Hasher(salt string) *Argon2Hasher {
	return &Argon2Hasher{salt: []byte(salt)}
}

// Hash はパスワードを16進文字列のハッシュに変換する。
func (h *Argon2Hasher) Hash(password string) string {
	key := argon2.IDKey([]byte(password), h.salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(key)
}

// Verify はパスワードがハッシュと一致するかを定数時間で比較する。
func (h *Argon2Hasher) Verify(password, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(h.Hash(password)), []byte(hash)) == 1
}
