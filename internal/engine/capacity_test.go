package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/territory-cli/internal/model"
)

func TestArrCapLowerOfWidenedTargetAndMax(t *testing.T) {
	cfg := testCapacity()
	book := NewCapacityBook([]*model.SalesRep{testRep("r1", "west")}, cfg)

	customer := &model.Account{ID: "a1", IsCustomer: true}
	prospect := &model.Account{ID: "a2"}

	// 4M * 1.1 = 4.4M widened, below the 5M max.
	assert.InDelta(t, 4_400_000, book.arrCap(customer), 1)
	assert.InDelta(t, 2_200_000, book.arrCap(prospect), 1)

	// A tight absolute max binds instead.
	cfg.CustomerMaxARR = 4_100_000
	book = NewCapacityBook([]*model.SalesRep{testRep("r1", "west")}, cfg)
	assert.InDelta(t, 4_100_000, book.arrCap(customer), 1)
}

func TestCanAcceptARRCap(t *testing.T) {
	book := NewCapacityBook([]*model.SalesRep{testRep("r1", "west")}, testCapacity())

	big := &model.Account{ID: "a1", IsCustomer: true, ARR: 4_000_000}
	assert.True(t, book.CanAccept("r1", big))
	book.Commit("r1", big)

	next := &model.Account{ID: "a2", IsCustomer: true, ARR: 500_000}
	assert.False(t, book.CanAccept("r1", next))

	small := &model.Account{ID: "a3", IsCustomer: true, ARR: 300_000}
	assert.True(t, book.CanAccept("r1", small))
}

func TestCanAcceptCRECap(t *testing.T) {
	book := NewCapacityBook([]*model.SalesRep{testRep("r1", "west")}, testCapacity())

	for i, id := range []string{"a1", "a2", "a3"} {
		a := &model.Account{ID: id, IsCustomer: true, ARR: 100_000, CRECount: i + 1}
		assert.True(t, book.CanAccept("r1", a))
		book.Commit("r1", a)
	}

	fourth := &model.Account{ID: "a4", IsCustomer: true, ARR: 100_000, CRECount: 1}
	assert.False(t, book.CanAccept("r1", fourth))

	// The CRE cap never blocks accounts without CRE events.
	clean := &model.Account{ID: "a5", IsCustomer: true, ARR: 100_000}
	assert.True(t, book.CanAccept("r1", clean))
}

func TestCanAcceptTierCaps(t *testing.T) {
	cfg := testCapacity()
	cfg.MaxTier1PerRep = 2
	book := NewCapacityBook([]*model.SalesRep{testRep("r1", "west")}, cfg)

	for _, id := range []string{"a1", "a2"} {
		a := &model.Account{ID: id, IsCustomer: true, ARR: 100_000, ExpansionTier: model.Tier1}
		assert.True(t, book.CanAccept("r1", a))
		book.Commit("r1", a)
	}

	third := &model.Account{ID: "a3", IsCustomer: true, ARR: 100_000, ExpansionTier: model.Tier1}
	assert.False(t, book.CanAccept("r1", third))

	tier3 := &model.Account{ID: "a4", IsCustomer: true, ARR: 100_000, ExpansionTier: model.Tier3}
	assert.True(t, book.CanAccept("r1", tier3))
}

func TestStrategicRepAlwaysAccepts(t *testing.T) {
	book := NewCapacityBook([]*model.SalesRep{strategicRep("s1", "west")}, testCapacity())

	huge := &model.Account{ID: "a1", IsCustomer: true, ARR: 50_000_000}
	assert.True(t, book.CanAccept("s1", huge))
	book.Commit("s1", huge)
	assert.True(t, book.OverMax("s1", huge))
}

func TestCommitIdempotentAndMovable(t *testing.T) {
	book := NewCapacityBook([]*model.SalesRep{testRep("r1", "west"), testRep("r2", "west")}, testCapacity())

	a := &model.Account{
		ID: "a1", IsCustomer: true, ARR: 1_000_000, CRECount: 1,
		ExpansionTier: model.Tier2,
		RenewalDate:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	book.Commit("r1", a)
	book.Commit("r1", a) // repeat is a no-op
	load := book.Load("r1")
	assert.Equal(t, 1, load.AccountCount)
	assert.InDelta(t, 1_000_000, load.ARR, 1)
	assert.Equal(t, 1, load.CRECount)
	assert.Equal(t, 1, load.Tier2Count)
	assert.Equal(t, 1, load.RenewalsByQuarter[2])

	// Re-committing against another rep moves the load.
	book.Commit("r2", a)
	assert.Equal(t, RepLoad{}, book.Load("r1"))
	moved := book.Load("r2")
	assert.Equal(t, 1, moved.AccountCount)
	assert.Equal(t, 1, moved.CRECount)
}

func TestHeadroomTracksCommittedARR(t *testing.T) {
	book := NewCapacityBook([]*model.SalesRep{testRep("r1", "west")}, testCapacity())

	a := &model.Account{ID: "a1", IsCustomer: true, ARR: 1_000_000}
	before := book.Headroom("r1", a)
	book.Commit("r1", a)
	after := book.Headroom("r1", a)
	assert.InDelta(t, 1_000_000, before-after, 1)
}

func TestUnknownRepRefused(t *testing.T) {
	book := NewCapacityBook(nil, testCapacity())
	a := &model.Account{ID: "a1", ARR: 1}
	assert.False(t, book.CanAccept("ghost", a))
}
