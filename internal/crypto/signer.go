package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Signer signs chain transactions and relay request payloads with a single
// secp256k1 key. The same key identifies the bot to the MEV relays.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
	txSigner   types.Signer
}

// NewSigner creates a Signer from a hex-encoded secp256k1 private key and the
// target chain ID (8453 for Base mainnet).
func NewSigner(privateKeyHex string, chainID int64) (*Signer, error) {
	keyHex := strings.TrimPrefix(privateKeyHex, "0x")
	pk, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: invalid private key: %w", err)
	}

	id := big.NewInt(chainID)
	return &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
		chainID:    id,
		txSigner:   types.LatestSignerForChainID(id),
	}, nil
}

// Address returns the Ethereum address derived from the signer's private key.
func (s *Signer) Address() common.Address {
	return s.address
}

// ChainID returns the chain the signer produces transactions for.
func (s *Signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// SignTx signs a transaction for the configured chain.
func (s *Signer) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, s.txSigner, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: signing transaction: %w", err)
	}
	return signed, nil
}

// RawTx returns the RLP encoding of a signed transaction as a 0x-prefixed hex
// string, the form relay bundles carry transactions in.
func RawTx(tx *types.Transaction) (string, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("crypto/signer: encoding transaction: %w", err)
	}
	return hexutil.Encode(data), nil
}

// SignRelayPayload produces the X-Flashbots-Signature header value for a
// relay request body: the signer address and an EIP-191 personal-sign
// signature over the hex-encoded keccak hash of the body, joined by a colon.
func (s *Signer) SignRelayPayload(body []byte) (string, error) {
	hashed := accounts.TextHash([]byte(hexutil.Encode(ethcrypto.Keccak256(body))))
	sig, err := ethcrypto.Sign(hashed, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("crypto/signer: signing relay payload: %w", err)
	}
	return s.address.Hex() + ":" + "0x" + hex.EncodeToString(sig), nil
}
