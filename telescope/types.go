package telescope

import (
	"fmt"

	"github.com/Rodot-/tellascope/lx200"
)

// Direction is a manual motion axis direction.
type Direction int

const (
	// DirectionNone addresses every axis; only Halt accepts it.
	DirectionNone Direction = iota
	North
	East
	South
	West
)

func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case North:
		return "n"
	case East:
		return "e"
	case South:
		return "s"
	case West:
		return "w"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection parses n, e, s, w or an empty string.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "none":
		return DirectionNone, nil
	case "n":
		return North, nil
	case "e":
		return East, nil
	case "s":
		return South, nil
	case "w":
		return West, nil
	default:
		return DirectionNone, fmt.Errorf("%w: direction %q", ErrInvalidArgument, s)
	}
}

func (d Direction) moveMnemonic() (string, bool) {
	switch d {
	case North:
		return lx200.CmdMoveNorth, true
	case East:
		return lx200.CmdMoveEast, true
	case South:
		return lx200.CmdMoveSouth, true
	case West:
		return lx200.CmdMoveWest, true
	default:
		return "", false
	}
}

func (d Direction) haltMnemonic() (string, bool) {
	switch d {
	case DirectionNone:
		return lx200.CmdHaltAll, true
	case North:
		return lx200.CmdHaltNorth, true
	case East:
		return lx200.CmdHaltEast, true
	case South:
		return lx200.CmdHaltSouth, true
	case West:
		return lx200.CmdHaltWest, true
	default:
		return "", false
	}
}

// SlewRate selects the speed used by manual moves.
type SlewRate int

const (
	RateGuide SlewRate = iota
	RateCenter
	RateFind
	RateSlew
)

func (r SlewRate) mnemonic() (string, bool) {
	switch r {
	case RateGuide:
		return lx200.CmdRateGuide, true
	case RateCenter:
		return lx200.CmdRateCenter, true
	case RateFind:
		return lx200.CmdRateFind, true
	case RateSlew:
		return lx200.CmdRateSlew, true
	default:
		return "", false
	}
}

// Catalog is an object catalog addressable by number.
type Catalog int

const (
	CatalogDeepSky Catalog = iota // NGC/IC objects, LC
	CatalogMessier                // LM
	CatalogStar                   // LS
)

func (c Catalog) mnemonic() (string, bool) {
	switch c {
	case CatalogDeepSky:
		return lx200.CmdSelectDeepSky, true
	case CatalogMessier:
		return lx200.CmdSelectMessier, true
	case CatalogStar:
		return lx200.CmdSelectStar, true
	default:
		return "", false
	}
}

// MaxCatalogIndex is the largest object number a selection accepts.
const MaxCatalogIndex = 9999
