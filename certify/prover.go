package certify

import (
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pnspace/go-pnspace/petrinet"
)

// Prover holds the compiled trace circuit and Groth16 keys for one net at
// one step capacity. Compilation and setup are paid once; certificates are
// then issued per trace.
type Prover struct {
	net    *petrinet.Net
	steps  int
	cs     constraint.ConstraintSystem
	pk     groth16.ProvingKey
	vk     groth16.VerifyingKey
	logger *zap.Logger
}

// Option configures a Prover.
type Option func(*Prover)

// WithLogger sets the logger for setup and proving progress.
func WithLogger(l *zap.Logger) Option {
	return func(p *Prover) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProver compiles the circuit for the net and runs the trusted setup.
// The setup here is local; production certificates need a ceremony.
func NewProver(net *petrinet.Net, steps int, opts ...Option) (*Prover, error) {
	if steps < 1 {
		return nil, fmt.Errorf("certify: capacity %d, need at least one step", steps)
	}
	p := &Prover{net: net, steps: steps, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	start := time.Now()
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, NewTraceCircuit(net, steps))
	if err != nil {
		return nil, fmt.Errorf("certify: circuit compilation failed: %w", err)
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("certify: setup failed: %w", err)
	}
	p.cs, p.pk, p.vk = cs, pk, vk
	p.logger.Info("trace circuit ready",
		zap.Int("constraints", cs.GetNbConstraints()),
		zap.Int("steps", steps),
		zap.Duration("setup", time.Since(start)))
	return p, nil
}

// Certificate binds a proof to the public markings it commits to.
type Certificate struct {
	RunID    string
	Final    petrinet.Marking
	Firings  int
	Proof    groth16.Proof
	Public   witness.Witness
	Duration time.Duration
}

// Certify replays path from the initial marking and proves the replay. The
// certificate commits publicly to the initial and final markings only; the
// path stays private.
func (p *Prover) Certify(path []string) (*Certificate, error) {
	start := time.Now()
	assignment, final, err := TraceAssignment(p.net, path, p.steps)
	if err != nil {
		return nil, err
	}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("certify: witness creation failed: %w", err)
	}
	proof, err := groth16.Prove(p.cs, p.pk, w)
	if err != nil {
		return nil, fmt.Errorf("certify: proof generation failed: %w", err)
	}
	public, err := w.Public()
	if err != nil {
		return nil, fmt.Errorf("certify: public witness extraction failed: %w", err)
	}
	cert := &Certificate{
		RunID:    uuid.NewString(),
		Final:    final,
		Firings:  len(path),
		Proof:    proof,
		Public:   public,
		Duration: time.Since(start),
	}
	p.logger.Info("certificate issued",
		zap.String("run_id", cert.RunID),
		zap.String("final", p.net.FormatMarking(final)),
		zap.Int("firings", cert.Firings))
	return cert, nil
}

// Verify checks a certificate against this prover's verifying key.
func (p *Prover) Verify(cert *Certificate) error {
	if err := groth16.Verify(cert.Proof, p.vk, cert.Public); err != nil {
		return fmt.Errorf("certify: %w", err)
	}
	return nil
}

// Constraints reports the size of the compiled circuit.
func (p *Prover) Constraints() int {
	return p.cs.GetNbConstraints()
}
