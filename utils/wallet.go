package utils

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"

	"github.com/ElrondNetwork/elrond-go-crypto/signing"
	"github.com/ElrondNetwork/elrond-go-crypto/signing/ed25519"
	"github.com/btcsuite/btcutil/bech32"
	"github.com/tyler-smith/go-bip39"
)

const hardened = uint32(0x80000000)

type bip32Path []uint32

type bip32 struct {
	Key       []byte
	ChainCode []byte
}

var path = bip32Path{
	44 + hardened,
	508 + hardened,
	hardened,
	hardened,
	hardened,
}

// GetPrivateKeyFromSeed - derives the ed25519 private key at the given
// account index from a bip39 mnemonic
func GetPrivateKeyFromSeed(mnemonic string, index int64) []byte {
	seed := bip39.NewSeed(mnemonic, "")
	path[3] = hardened + uint32(index>>32)
	path[4] = hardened + uint32(index&0xFFFFFFFF)
	keyData := derivePrivateKey(seed, path)

	return keyData.Key
}

// GetAddressFromPrivateKey - computes the bech32 address of the public key
// paired with the given private key
func GetAddressFromPrivateKey(privBytes []byte) string {
	_suite := ed25519.NewEd25519()
	keyGen := signing.NewKeyGenerator(_suite)
	txSignPrivKey, _ := keyGen.PrivateKeyFromByteArray(privBytes)
	pubKey := txSignPrivKey.GeneratePublic()
	pubBytes, _ := pubKey.ToByteArray()
	b, _ := bech32.ConvertBits(pubBytes, 8, 5, true)
	s, _ := bech32.Encode("erd", b)

	return s
}

func derivePrivateKey(seed []byte, path bip32Path) *bip32 {
	b := &bip32{}
	digest := hmac.New(sha512.New, []byte("ed25519 seed"))
	digest.Write(seed)
	intermediary := digest.Sum(nil)
	b.Key = intermediary[:32]
	b.ChainCode = intermediary[32:]
	for _, childIdx := range path {
		data := make([]byte, 1+32+4)
		data[0] = 0x00
		copy(data[1:1+32], b.Key)
		binary.BigEndian.PutUint32(data[1+32:1+32+4], childIdx)
		digest = hmac.New(sha512.New, b.ChainCode)
		digest.Write(data)
		intermediary = digest.Sum(nil)
		b.Key = intermediary[:32]
		b.ChainCode = intermediary[32:]
	}
	return b
}
