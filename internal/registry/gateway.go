package registry

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"docproof/internal/config"
	"docproof/model"
)

// Call deadlines for gateway operations. Registry calls are synchronous with
// no retry; a stuck peer should fail the request, not hang it.
const (
	evaluateTimeout     = 10 * time.Second
	endorseTimeout      = 15 * time.Second
	submitTimeout       = 15 * time.Second
	commitStatusTimeout = 60 * time.Second
)

// GatewayRegistry talks to the deployed DocProof chaincode through the Fabric
// Gateway service on a peer. Serialization of concurrent registrations is
// delegated entirely to the ledger's transaction ordering.
type GatewayRegistry struct {
	conn     *grpc.ClientConn
	gw       *client.Gateway
	network  *client.Network
	contract *client.Contract
	cfg      config.Fabric
	log      *logrus.Entry
}

// NewGateway connects to the peer named in cfg using the identity and TLS
// artifacts produced by the deployment step.
func NewGateway(cfg config.Fabric, log *logrus.Logger) (*GatewayRegistry, error) {
	id, sign, err := loadIdentity(cfg)
	if err != nil {
		return nil, err
	}

	tlsPEM, err := os.ReadFile(cfg.TLSCertPath)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to read TLS certificate %s: %w", cfg.TLSCertPath, err)
	}
	certPool := x509.NewCertPool()
	if !certPool.AppendCertsFromPEM(tlsPEM) {
		return nil, fmt.Errorf("registry: no certificates parsed from %s", cfg.TLSCertPath)
	}
	creds := credentials.NewClientTLSFromCert(certPool, cfg.GatewayPeer)

	conn, err := grpc.DialContext(context.Background(), cfg.PeerEndpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("registry: failed to dial peer %s: %w", cfg.PeerEndpoint, err)
	}

	gw, err := client.Connect(id,
		client.WithSign(sign),
		client.WithClientConnection(conn),
		client.WithEvaluateTimeout(evaluateTimeout),
		client.WithEndorseTimeout(endorseTimeout),
		client.WithSubmitTimeout(submitTimeout),
		client.WithCommitStatusTimeout(commitStatusTimeout),
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("registry: failed to connect gateway: %w", err)
	}

	network := gw.GetNetwork(cfg.Channel)
	return &GatewayRegistry{
		conn:     conn,
		gw:       gw,
		network:  network,
		contract: network.GetContract(cfg.Chaincode),
		cfg:      cfg,
		log:      log.WithField("component", "registry"),
	}, nil
}

func loadIdentity(cfg config.Fabric) (*identity.X509Identity, identity.Sign, error) {
	certPEM, err := os.ReadFile(cfg.CertPath)
	if err != nil {
		return nil, nil, fmt.Errorf("registry: failed to read identity certificate %s: %w", cfg.CertPath, err)
	}
	cert, err := identity.CertificateFromPEM(certPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("registry: failed to parse identity certificate: %w", err)
	}
	id, err := identity.NewX509Identity(cfg.MSPID, cert)
	if err != nil {
		return nil, nil, fmt.Errorf("registry: failed to build identity: %w", err)
	}

	keyPEM, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("registry: failed to read private key %s: %w", cfg.KeyPath, err)
	}
	key, err := identity.PrivateKeyFromPEM(keyPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("registry: failed to parse private key: %w", err)
	}
	sign, err := identity.NewPrivateKeySign(key)
	if err != nil {
		return nil, nil, fmt.Errorf("registry: failed to build signer: %w", err)
	}
	return id, sign, nil
}

// Register submits a RegisterDocument transaction through the full
// proposal/endorse/submit flow so the commit's transaction ID and block
// number are available for the response.
func (g *GatewayRegistry) Register(ctx context.Context, certificateNumber, documentHash string) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	proposal, err := g.contract.NewProposal("RegisterDocument", client.WithArguments(certificateNumber, documentHash))
	if err != nil {
		return nil, model.WrapError(model.ErrCodeRegistryUnavailable, "failed to build registration proposal", err)
	}
	txn, err := proposal.Endorse()
	if err != nil {
		return nil, mapContractError("Register", err)
	}
	commit, err := txn.Submit()
	if err != nil {
		return nil, mapContractError("Register", err)
	}
	status, err := commit.Status()
	if err != nil {
		return nil, model.WrapError(model.ErrCodeRegistryUnavailable, "failed to get commit status", err)
	}
	if !status.Successful {
		return nil, model.Errorf(model.ErrCodeRegistryUnavailable, "registration transaction %s failed with validation code %d", status.TransactionID, int32(status.Code))
	}

	var result model.RegistrationResult
	if err := json.Unmarshal(txn.Result(), &result); err != nil {
		return nil, model.WrapError(model.ErrCodeInternal, "failed to decode registration result", err)
	}

	g.log.WithFields(logrus.Fields{
		"certificateNumber": certificateNumber,
		"txId":              status.TransactionID,
		"blockNumber":       status.BlockNumber,
	}).Info("document registered on ledger")

	return &Receipt{
		CertificateNumber: result.CertificateNumber,
		Timestamp:         result.Timestamp,
		TxID:              status.TransactionID,
		BlockNumber:       status.BlockNumber,
	}, nil
}

func (g *GatewayRegistry) Lookup(ctx context.Context, certificateNumber string) (*model.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resultBytes, err := g.contract.EvaluateTransaction("GetDocument", certificateNumber)
	if err != nil {
		return nil, mapContractError("Lookup", err)
	}
	var record model.DocumentRecord
	if err := json.Unmarshal(resultBytes, &record); err != nil {
		return nil, model.WrapError(model.ErrCodeInternal, "failed to decode document record", err)
	}
	return &record, nil
}

func (g *GatewayRegistry) Verify(ctx context.Context, certificateNumber, candidateHash string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resultBytes, err := g.contract.EvaluateTransaction("VerifyDocument", certificateNumber, candidateHash)
	if err != nil {
		return nil, mapContractError("Verify", err)
	}
	var result model.VerificationResult
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		return nil, model.WrapError(model.ErrCodeInternal, "failed to decode verification result", err)
	}
	return &Outcome{Matches: result.Matches, Timestamp: result.Timestamp}, nil
}

func (g *GatewayRegistry) Name() string { return "fabric" }

func (g *GatewayRegistry) Close() error {
	g.gw.Close()
	return g.conn.Close()
}

// mapContractError classifies a gateway failure. Contract-level rejections
// carry the contract's message text; everything else is a transport failure
// surfaced as REGISTRY_UNAVAILABLE with no retry.
func mapContractError(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already exists"):
		return model.ErrAlreadyExists
	case strings.Contains(msg, "does not exist"):
		return model.ErrNotFound
	case strings.Contains(msg, "certificateNumber"), strings.Contains(msg, "documentHash"):
		// Contract-side input rejection; the message names the offending field.
		return model.WrapError(model.ErrCodeValidation, fmt.Sprintf("%s: rejected by registry", op), err)
	}
	return model.WrapError(model.ErrCodeRegistryUnavailable, fmt.Sprintf("%s: registry call failed", op), err)
}
