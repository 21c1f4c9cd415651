// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

// examproof drives the credential Merkle subsystem from the command line:
// building registry trees, extracting inclusion proofs in the JSON wire
// shape, and running the composer circuit through the groth16 backend
// (compile/setup, prove, verify).
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/urfave/cli/v2"

	"github.com/examchain/examproof/circuits"
	"github.com/examchain/examproof/credential"
	"github.com/examchain/examproof/field"
	"github.com/examchain/examproof/logger"
	"github.com/examchain/examproof/merkle"
	"github.com/examchain/examproof/poseidon"
)

func main() {
	log := logger.Logger()

	app := &cli.App{
		Name:  "examproof",
		Usage: "credential/nullifier Merkle tooling and groth16 driver",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "build a tree from a JSON leaf array and write a snapshot",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "leaves", Usage: "path to JSON array of field elements", Required: true},
					&cli.IntFlag{Name: "height", Usage: "tree height", Value: 16},
					&cli.StringFlag{Name: "out", Usage: "snapshot output path", Required: true},
				},
				Action: buildTree,
			},
			{
				Name:  "root",
				Usage: "print the root of a tree snapshot",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "snapshot", Required: true},
				},
				Action: printRoot,
			},
			{
				Name:  "proof",
				Usage: "extract an inclusion proof as the JSON wire artifact",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "snapshot", Required: true},
					&cli.IntFlag{Name: "index", Required: true},
				},
				Action: extractProof,
			},
			{
				Name:  "check",
				Usage: "replay a JSON proof artifact against a claimed root",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "proof", Usage: "path to the proof artifact", Required: true},
					&cli.StringFlag{Name: "root", Usage: "claimed root (decimal or 0x hex)", Required: true},
					&cli.IntFlag{Name: "height", Usage: "height of the tree the root commits to", Required: true},
				},
				Action: checkProof,
			},
			{
				Name:  "setup",
				Usage: "compile the composer circuit and run groth16 setup",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "height", Value: 16},
					&cli.StringFlag{Name: "ccs", Value: "composer.ccs"},
					&cli.StringFlag{Name: "pk", Value: "composer.pk"},
					&cli.StringFlag{Name: "vk", Value: "composer.vk"},
				},
				Action: setup,
			},
			{
				Name:  "prove",
				Usage: "evaluate the relation and produce a groth16 proof",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ccs", Value: "composer.ccs"},
					&cli.StringFlag{Name: "pk", Value: "composer.pk"},
					&cli.IntFlag{Name: "height", Usage: "height the circuit was compiled for", Value: 16},
					&cli.StringFlag{Name: "inputs", Usage: "path to verification inputs JSON", Required: true},
					&cli.StringFlag{Name: "proof", Value: "composer.proof"},
					&cli.StringFlag{Name: "public", Value: "composer.pub"},
				},
				Action: prove,
			},
			{
				Name:  "verify",
				Usage: "verify a groth16 proof against the public inputs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "vk", Value: "composer.vk"},
					&cli.StringFlag{Name: "proof", Value: "composer.proof"},
					&cli.StringFlag{Name: "public", Value: "composer.pub"},
				},
				Action: verify,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("examproof failed")
	}
}

func buildTree(c *cli.Context) error {
	raw, err := os.ReadFile(c.String("leaves"))
	if err != nil {
		return fmt.Errorf("read leaves: %w", err)
	}
	var encoded []string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return fmt.Errorf("parse leaves: %w", err)
	}
	leaves := make([]fr.Element, len(encoded))
	for i := range encoded {
		leaves[i] = field.FromString(encoded[i])
	}

	t, err := merkle.Build(poseidon.New(), leaves, c.Int("height"))
	if err != nil {
		return err
	}
	f, err := os.Create(c.String("out"))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := t.WriteSnapshot(f); err != nil {
		return err
	}
	root := t.Root()
	fmt.Println(root.String())
	return nil
}

func loadSnapshot(path string) (*merkle.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return merkle.ReadSnapshot(f, poseidon.New())
}

func printRoot(c *cli.Context) error {
	t, err := loadSnapshot(c.String("snapshot"))
	if err != nil {
		return err
	}
	root := t.Root()
	fmt.Println(root.String())
	return nil
}

func extractProof(c *cli.Context) error {
	t, err := loadSnapshot(c.String("snapshot"))
	if err != nil {
		return err
	}
	p, err := t.Proof(c.Int("index"))
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func checkProof(c *cli.Context) error {
	raw, err := os.ReadFile(c.String("proof"))
	if err != nil {
		return fmt.Errorf("read proof: %w", err)
	}
	var p merkle.Proof
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	root := field.FromString(c.String("root"))
	if !p.Verify(poseidon.New(), root, c.Int("height")) {
		return fmt.Errorf("proof does not recompute the claimed root at height %d", c.Int("height"))
	}
	fmt.Println("ok")
	return nil
}

func setup(c *cli.Context) error {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder,
		circuits.NewCredentialCircuit(c.Int("height")))
	if err != nil {
		return fmt.Errorf("compile composer: %w", err)
	}
	log := logger.Logger()
	log.Info().Int("constraints", ccs.GetNbConstraints()).Msg("composer compiled")

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return fmt.Errorf("groth16 setup: %w", err)
	}
	if err := writeTo(c.String("ccs"), ccs); err != nil {
		return err
	}
	if err := writeTo(c.String("pk"), pk); err != nil {
		return err
	}
	return writeTo(c.String("vk"), vk)
}

// proveInputs is the JSON shape accepted by `examproof prove`. Field
// elements go through the codec, so decimal, 0x hex and free text are all
// accepted; key and signature are hex.
type proveInputs struct {
	CredentialRoot       string       `json:"credentialRoot"`
	NullifierRoot        string       `json:"nullifierRoot"`
	Nullifier            string       `json:"nullifier"`
	ExamIDHash           string       `json:"examIdHash"`
	AchievementLevelHash string       `json:"achievementLevelHash"`
	IssuerHash           string       `json:"issuerHash"`
	CurrentTime          string       `json:"currentTime"`
	HolderSecret         string       `json:"holderSecret"`
	StoredNullifierLeaf  string       `json:"storedNullifierLeaf"`
	CredentialProof      merkle.Proof `json:"credentialProof"`
	NullifierProof       merkle.Proof `json:"nullifierProof"`
	PublicKey            string       `json:"publicKey"`
	Signature            string       `json:"signature"`
}

func prove(c *cli.Context) error {
	raw, err := os.ReadFile(c.String("inputs"))
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}
	var in proveInputs
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("parse inputs: %w", err)
	}
	pubKey, err := hex.DecodeString(in.PublicKey)
	if err != nil {
		return fmt.Errorf("decode public key: %w", err)
	}
	sig, err := hex.DecodeString(in.Signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	vin := credential.VerificationInputs{
		CredentialRoot: field.FromString(in.CredentialRoot),
		NullifierRoot:  field.FromString(in.NullifierRoot),
		Nullifier:      field.FromString(in.Nullifier),
		Credential: credential.New(
			in.ExamIDHash, in.AchievementLevelHash, in.IssuerHash, in.HolderSecret),
		CurrentTime:         field.FromString(in.CurrentTime),
		CredentialProof:     in.CredentialProof,
		NullifierProof:      in.NullifierProof,
		StoredNullifierLeaf: field.FromString(in.StoredNullifierLeaf),
		PublicKey:           pubKey,
		Signature:           sig,
	}

	assignment, outcome, err := credential.NewComposerWitness(poseidon.New(), vin, c.Int("height"))
	if err != nil {
		return err
	}
	log := logger.Logger()
	log.Info().
		Bool("verified", outcome.Verified).
		Bool("credentialIncluded", outcome.CredentialIncluded).
		Bool("nullifierValid", outcome.NullifierValid).
		Bool("signatureValid", outcome.SignatureValid).
		Msg("relation evaluated")

	ccs := groth16.NewCS(ecc.BN254)
	if err := readFrom(c.String("ccs"), ccs); err != nil {
		return err
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readFrom(c.String("pk"), pk); err != nil {
		return err
	}

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("build witness: %w", err)
	}
	proof, err := groth16.Prove(ccs, pk, w)
	if err != nil {
		return fmt.Errorf("groth16 prove: %w", err)
	}
	public, err := w.Public()
	if err != nil {
		return err
	}
	if err := writeTo(c.String("proof"), proof); err != nil {
		return err
	}
	return writeTo(c.String("public"), public)
}

func verify(c *cli.Context) error {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := readFrom(c.String("vk"), vk); err != nil {
		return err
	}
	proof := groth16.NewProof(ecc.BN254)
	if err := readFrom(c.String("proof"), proof); err != nil {
		return err
	}
	public, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return err
	}
	f, err := os.Open(c.String("public"))
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := public.ReadFrom(f); err != nil {
		return err
	}

	if err := groth16.Verify(proof, vk, public); err != nil {
		return fmt.Errorf("proof rejected: %w", err)
	}
	fmt.Println("ok")
	return nil
}

func writeTo(path string, v io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := v.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readFrom(path string, v io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := v.ReadFrom(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
