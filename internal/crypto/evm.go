package crypto

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

func PrivToHex(priv *ecdsa.PrivateKey) string {
	return "0x" + fmt.Sprintf("%x", gethcrypto.FromECDSA(priv))
}

// PubToHex returns the 33-byte compressed public key.
func PubToHex(priv *ecdsa.PrivateKey) string {
	return "0x" + fmt.Sprintf("%x", gethcrypto.CompressPubkey(&priv.PublicKey))
}

func AddressHex(priv *ecdsa.PrivateKey) string {
	return gethcrypto.PubkeyToAddress(priv.PublicKey).Hex()
}

// KeystoreJSON encrypts priv as a Web3 v3 keystore. Light scrypt parameters
// keep a long search from stalling on every hit.
func KeystoreJSON(priv *ecdsa.PrivateKey, password string) ([]byte, error) {
	key := &keystore.Key{
		Address:    gethcrypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}
	return keystore.EncryptKey(key, password, keystore.LightScryptN, keystore.LightScryptP)
}

// DecryptKeystore returns the private key and its EIP-55 address.
func DecryptKeystore(blob []byte, password string) (*ecdsa.PrivateKey, string, error) {
	key, err := keystore.DecryptKey(blob, password)
	if err != nil {
		return nil, "", fmt.Errorf("decrypt keystore: %w", err)
	}
	return key.PrivateKey, key.Address.Hex(), nil
}
