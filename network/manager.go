package network

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ElrondNetwork/elrond-go-core/core"
	"github.com/ElrondNetwork/elrond-go-core/core/pubkeyConverter"
	logger "github.com/ElrondNetwork/elrond-go-logger"
	"github.com/ElrondNetwork/elrond-sdk-erdgo/blockchain"
	"github.com/ElrondNetwork/elrond-sdk-erdgo/builders"
	sdkData "github.com/ElrondNetwork/elrond-sdk-erdgo/data"
	"github.com/ElrondNetwork/elrond-sdk-erdgo/interactors"

	"github.com/aliakgoz/BingoBase/data"
	"github.com/aliakgoz/BingoBase/utils"
)

var log = logger.GetOrCreate("network")

// NetworkManager - the keeper's gateway to the ledger: round reads through
// VM queries, operation submission through signed transactions, status
// lookups through the elastic indexer, events synthesized from polling.
type NetworkManager struct {
	NetworkConfig *sdkData.NetworkConfig
	cfg           *data.AppConfig

	fDenomination *big.Float
	proxy         blockchain.Proxy
	conv          core.PubkeyConverter

	privateKey   []byte
	signer       string
	pollInterval time.Duration
}

// NewNetworkManager - creates a new NetworkManager object
func NewNetworkManager(cfg *data.AppConfig) (*NetworkManager, error) {
	proxy := blockchain.NewElrondProxy(cfg.Network.Proxy, nil)

	networkConfig, err := proxy.GetNetworkConfig(context.Background())
	if err != nil {
		log.Error("can not get network config from proxy", "error", err)
		return nil, err
	}

	fDenomination := big.NewFloat(1)
	for i := 0; i < networkConfig.Denomination; i++ {
		fDenomination.Mul(fDenomination, big.NewFloat(10))
	}

	conv, err := pubkeyConverter.NewBech32PubkeyConverter(32, log)
	if err != nil {
		log.Error("can not create converter", "error", err)
		return nil, err
	}

	privateKey := utils.GetPrivateKeyFromSeed(cfg.Seedphrase, 0)
	signer := utils.GetAddressFromPrivateKey(privateKey)

	pollInterval := time.Duration(cfg.Keeper.PollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 6 * time.Second
	}

	networkManager := &NetworkManager{
		NetworkConfig: networkConfig,
		cfg:           cfg,
		fDenomination: fDenomination,
		proxy:         proxy,
		conv:          conv,
		privateKey:    privateKey,
		signer:        signer,
		pollInterval:  pollInterval,
	}
	log.Info("network manager created", "signer", signer, "contract", cfg.ContractAddress)

	return networkManager, nil
}

// SignerAddress - bech32 address of the keeper's signing identity
func (nm *NetworkManager) SignerAddress() string {
	return nm.signer
}

func (nm *NetworkManager) getScOneResult(ctx context.Context, function string, args ...string) ([]byte, error) {
	req := &sdkData.VmValueRequest{
		Address:  nm.cfg.ContractAddress,
		FuncName: function,
		Args:     args,
	}
	res, err := nm.proxy.ExecuteVMQuery(ctx, req)
	if err != nil {
		log.Error("getScOneResult", "function", function, "error", err)
		return nil, fmt.Errorf("%w: %s", data.ErrLedgerUnavailable, err.Error())
	}

	if len(res.Data.ReturnData) == 0 {
		return nil, errEmptyResponse
	}

	return res.Data.ReturnData[0], nil
}

func (nm *NetworkManager) getScMultiResults(ctx context.Context, function string, args ...string) ([][]byte, error) {
	req := &sdkData.VmValueRequest{
		Address:  nm.cfg.ContractAddress,
		FuncName: function,
		Args:     args,
	}
	res, err := nm.proxy.ExecuteVMQuery(ctx, req)
	if err != nil {
		log.Error("getScMultiResults", "function", function, "args", args, "error", err)
		return nil, fmt.Errorf("%w: %s", data.ErrLedgerUnavailable, err.Error())
	}

	return res.Data.ReturnData, nil
}

func (nm *NetworkManager) getUint64(ctx context.Context, function string, args ...string) (uint64, error) {
	bytes, err := nm.getScOneResult(ctx, function, args...)
	if err != nil {
		return 0, err
	}

	if len(bytes) == 0 {
		return 0, nil
	}

	return big.NewInt(0).SetBytes(bytes).Uint64(), nil
}

// CurrentRoundID - id of the newest round the contract tracks, 0 when no
// round was ever created
func (nm *NetworkManager) CurrentRoundID(ctx context.Context) (uint64, error) {
	return nm.getUint64(ctx, "getCurrentRoundId")
}

// RoundInfo - full snapshot of one round, players included
func (nm *NetworkManager) RoundInfo(ctx context.Context, roundID uint64) (*data.Round, error) {
	res, err := nm.getScMultiResults(ctx, "getRoundInfo", hexArg(roundID))
	if err != nil {
		return nil, err
	}

	round, err := nm.decodeRound(roundID, res)
	if err != nil {
		return nil, err
	}

	round.Players, err = nm.PlayersOf(ctx, roundID)
	if err != nil {
		return nil, err
	}

	return round, nil
}

// PlayersOf - ordered participants of a round, empty when nobody joined
func (nm *NetworkManager) PlayersOf(ctx context.Context, roundID uint64) ([]string, error) {
	res, err := nm.getScMultiResults(ctx, "getPlayers", hexArg(roundID))
	if err != nil {
		return nil, err
	}

	players := make([]string, 0)
	for _, pubkey := range res {
		players = append(players, nm.conv.Encode(pubkey))
	}

	return players, nil
}

// CardOf - the participant's card numbers in slot order
func (nm *NetworkManager) CardOf(ctx context.Context, roundID uint64, participant string) ([]uint32, error) {
	pubkey, err := nm.conv.Decode(participant)
	if err != nil {
		return nil, err
	}

	res, err := nm.getScMultiResults(ctx, "getCardOf", hexArg(roundID), hex.EncodeToString(pubkey))
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, errEmptyResponse
	}

	card := make([]uint32, 0, len(res))
	for _, raw := range res {
		card = append(card, uint32(bytesToUint64(raw)))
	}

	return card, nil
}

// CanClaim - whether the ledger would accept a claim for the participant
func (nm *NetworkManager) CanClaim(ctx context.Context, roundID uint64, participant string) (bool, error) {
	pubkey, err := nm.conv.Decode(participant)
	if err != nil {
		return false, err
	}

	raw, err := nm.getScOneResult(ctx, "canClaim", hexArg(roundID), hex.EncodeToString(pubkey))
	if err != nil {
		return false, err
	}

	return bytesToBool(raw), nil
}

// RoundStats - all-time totals the contract tracks
func (nm *NetworkManager) RoundStats(ctx context.Context) (*data.RoundStats, error) {
	rounds, err := nm.getUint64(ctx, "getTotalRounds")
	if err != nil {
		return nil, err
	}

	draws, err := nm.getUint64(ctx, "getTotalDraws")
	if err != nil {
		return nil, err
	}

	claims, err := nm.getUint64(ctx, "getTotalClaims")
	if err != nil {
		return nil, err
	}

	return &data.RoundStats{
		TotalRounds: rounds,
		TotalDraws:  draws,
		TotalClaims: claims,
	}, nil
}

// Sequence - the signer account's next sequence number
func (nm *NetworkManager) Sequence(ctx context.Context) (uint64, error) {
	account, err := nm.account(ctx, nm.signer)
	if err != nil {
		return 0, err
	}

	return account.Nonce, nil
}

// SignerBalance - the signer account's balance in natural units
func (nm *NetworkManager) SignerBalance(ctx context.Context) (float64, error) {
	account, err := nm.account(ctx, nm.signer)
	if err != nil {
		return 0, err
	}

	balance, err := account.GetBalance(nm.NetworkConfig.Denomination)
	if err != nil {
		log.Error("signerBalance - GetBalance", "address", nm.signer, "error", err)
		return 0, err
	}

	return balance, nil
}

// FormatAmount - renders a base-unit amount in natural units for logs
func (nm *NetworkManager) FormatAmount(value *big.Int) string {
	if value == nil {
		return "0"
	}

	fValue := big.NewFloat(0).SetInt(value)
	fValue.Quo(fValue, nm.fDenomination)
	amount, _ := fValue.Float64()

	return utils.NicePrice(amount, -1)
}

func (nm *NetworkManager) account(ctx context.Context, address string) (*sdkData.Account, error) {
	pubkey, err := nm.conv.Decode(address)
	if err != nil {
		log.Error("account - Decode", "address", address, "error", err)
		return nil, err
	}

	account, err := nm.proxy.GetAccount(ctx, sdkData.NewAddressFromBytes(pubkey))
	if err != nil {
		log.Error("account - GetAccount", "address", address, "error", err)
		return nil, fmt.Errorf("%w: %s", data.ErrLedgerUnavailable, err.Error())
	}

	return account, nil
}

// Submit - signs and sends one operation at an explicit sequence number and
// gas price, returning the transaction hash. Sending the same sequence again
// with a higher gas price replaces the earlier attempt.
func (nm *NetworkManager) Submit(ctx context.Context, op *data.Operation, sequence uint64, gasPrice uint64) (string, error) {
	payload, gasLimit, err := nm.encodeOperation(op)
	if err != nil {
		return "", err
	}

	ep := blockchain.NewElrondProxy(nm.cfg.Network.Proxy, nil)
	w := interactors.NewWallet()
	builder, _ := builders.NewTxBuilder(blockchain.NewTxSigner())
	ti, err := interactors.NewTransactionInteractor(ep, builder)
	if err != nil {
		log.Error("error creating transaction interactor", "error", err)
		return "", err
	}

	senderAddress, err := w.GetAddressFromPrivateKey(nm.privateKey)
	if err != nil {
		log.Error("unable to load the address from the private key", "error", err)
		return "", err
	}

	txArgs, err := ep.GetDefaultTransactionArguments(ctx, senderAddress, nm.NetworkConfig)
	if err != nil {
		log.Error("unable to prepare the transaction creation arguments", "error", err)
		return "", classifySubmitError(err)
	}

	txArgs.Nonce = sequence
	if gasPrice > 0 {
		txArgs.GasPrice = gasPrice
	}
	txArgs.GasLimit = gasLimit
	txArgs.RcvAddr = nm.cfg.ContractAddress
	txArgs.Data = []byte(payload)
	txArgs.Value = "0"
	if op.Value != nil {
		txArgs.Value = op.Value.String()
	}

	tx, err := ti.ApplySignatureAndGenerateTx(nm.privateKey, txArgs)
	if err != nil {
		log.Error("unable to sign transaction", "error", err)
		return "", err
	}

	hash, err := ti.SendTransaction(ctx, tx)
	if err != nil {
		log.Error("unable to send transaction", "operation", op.Kind, "sequence", sequence, "error", err)
		return "", classifySubmitError(err)
	}
	log.Debug("transaction sent", "operation", op.Kind, "round", op.RoundID,
		"sequence", sequence, "gasPrice", gasPrice, "value", nm.FormatAmount(op.Value),
		"explorer", nm.cfg.Network.ExplorerTransaction+hash)

	return hash, nil
}

// Status - disposition of a submitted transaction as the indexer saw it.
// A transaction the indexer has not picked up yet reports TxUnknown with no
// error.
func (nm *NetworkManager) Status(ctx context.Context, hash string) (data.TxStatus, error) {
	endpoint := fmt.Sprintf("%s/transactions/_search?size=1&q=_id:%s", nm.cfg.Network.Indexer, hash)
	bytes, err := utils.GetHTTP(endpoint)
	if err != nil {
		return data.TxUnknown, err
	}

	res := &data.ElasticResult{}
	err = json.Unmarshal(bytes, res)
	if err != nil {
		return data.TxUnknown, err
	}

	if len(res.Hits.Hits) != 1 {
		return data.TxUnknown, nil
	}

	return parseTxStatus(res.Hits.Hits[0].Source.Status), nil
}
