package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChainFamily groups chains that share a decoder.
type ChainFamily string

const (
	FamilyEVM    ChainFamily = "evm"
	FamilySolana ChainFamily = "solana"
	FamilyCosmos ChainFamily = "cosmos"
)

// ChainID identifies the chain a raw event came from.
type ChainID struct {
	Slug       string      `json:"slug"`
	EVMChainID *uint64     `json:"evm_chain_id,omitempty"`
	Family     ChainFamily `json:"family"`
}

// EVMChain builds an EVM chain identity.
func EVMChain(slug string, chainID uint64) ChainID {
	id := chainID
	return ChainID{Slug: slug, EVMChainID: &id, Family: FamilyEVM}
}

func SolanaChain(slug string) ChainID { return ChainID{Slug: slug, Family: FamilySolana} }

func CosmosChain(slug string) ChainID { return ChainID{Slug: slug, Family: FamilyCosmos} }

type knownChain struct {
	family  ChainFamily
	chainID uint64
}

var knownChains = map[string]knownChain{
	"ethereum":       {FamilyEVM, 1},
	"optimism":       {FamilyEVM, 10},
	"bsc":            {FamilyEVM, 56},
	"polygon":        {FamilyEVM, 137},
	"base":           {FamilyEVM, 8453},
	"arbitrum":       {FamilyEVM, 42161},
	"avalanche":      {FamilyEVM, 43114},
	"sepolia":        {FamilyEVM, 11155111},
	"solana":         {FamilySolana, 0},
	"solana-devnet":  {FamilySolana, 0},
	"cosmoshub":      {FamilyCosmos, 0},
	"osmosis":        {FamilyCosmos, 0},
	"injective":      {FamilyCosmos, 0},
	"neutron":        {FamilyCosmos, 0},
	"celestia":       {FamilyCosmos, 0},
	"cosmoshub-test": {FamilyCosmos, 0},
}

// KnownChain resolves a well-known chain slug.
func KnownChain(slug string) (ChainID, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	known, ok := knownChains[slug]
	if !ok {
		return ChainID{}, false
	}
	if known.family == FamilyEVM {
		return EVMChain(slug, known.chainID), true
	}
	return ChainID{Slug: slug, Family: known.family}, true
}

func (c ChainID) String() string { return c.Slug }

// UnmarshalJSON accepts either the object form or a bare well-known slug.
func (c *ChainID) UnmarshalJSON(data []byte) error {
	var slug string
	if err := json.Unmarshal(data, &slug); err == nil {
		known, ok := KnownChain(slug)
		if !ok {
			return fmt.Errorf("unknown chain slug %q", slug)
		}
		*c = known
		return nil
	}

	type Alias ChainID
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Family == "" {
		if known, ok := KnownChain(a.Slug); ok {
			a.Family = known.Family
			if a.EVMChainID == nil {
				a.EVMChainID = known.EVMChainID
			}
		}
	}
	*c = ChainID(a)
	return nil
}
