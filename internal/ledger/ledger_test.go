package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

const (
	orchestrator = domain.Identity("0x0000000000000000000000000000000000000c0e")
	vendor       = domain.Identity("0x00000000000000000000000000000000000000a1")
	carrier1     = domain.Identity("0x00000000000000000000000000000000000000a2")
	carrier2     = domain.Identity("0x00000000000000000000000000000000000000a3")
	pharmacy     = domain.Identity("0x00000000000000000000000000000000000000a4")
	stranger     = domain.Identity("0x00000000000000000000000000000000000000a9")
)

var testAssetID = domain.AssetIDFromBytes([]byte(strings.Repeat("\xaa", domain.AssetIDLength)))

type DrugLedgerSuite struct {
	suite.Suite
	sut *Ledger
}

func TestDrugLedgerSuite(t *testing.T) {
	suite.Run(t, new(DrugLedgerSuite))
}

func (s *DrugLedgerSuite) SetupTest() {
	l, err := New(VariantDrug, testAssetID, vendor, carrier1, domain.CategoryCarrier, orchestrator, 1000)
	s.Require().NoError(err)
	s.sut = l
}

func (s *DrugLedgerSuite) TestCreate() {
	s.Run("seeds the initial handover", func() {
		s.Equal(1, s.sut.HandoverCount())

		h, err := s.sut.HandoverAt(0)
		s.Require().NoError(err)
		s.Equal(Participant{ID: vendor, Category: domain.CategoryVendor}, h.From)
		s.Equal(Participant{ID: carrier1, Category: domain.CategoryCarrier}, h.To)
		s.Equal(int64(1000), h.At)
	})

	s.Run("sets creator as controlling authority", func() {
		s.Equal(orchestrator, s.sut.Authority())
	})

	s.Run("initial handover conditions default to not applicable", func() {
		s.Equal(DefaultConditions, s.sut.ConditionsFor(vendor, carrier1, 1000))
	})

	s.Run("rejects empty asset id", func() {
		_, err := New(VariantDrug, domain.AssetID(""), vendor, carrier1, domain.CategoryCarrier, orchestrator, 1000)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAsset))
	})

	s.Run("rejects vendor as first holder", func() {
		_, err := New(VariantDrug, testAssetID, vendor, pharmacy, domain.CategoryVendor, orchestrator, 1000)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCategory))
	})

	s.Run("rejects unknown first holder category", func() {
		_, err := New(VariantDrug, testAssetID, vendor, carrier1, domain.ParticipantCategory("smuggler"), orchestrator, 1000)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCategory))
	})

	s.Run("allows pharmacy as first holder", func() {
		l, err := New(VariantDrug, testAssetID, vendor, pharmacy, domain.CategoryPharmacy, orchestrator, 1000)
		s.Require().NoError(err)
		s.Equal(domain.CategoryPharmacy, l.CurrentHolder().Category)
	})
}

func (s *DrugLedgerSuite) TestAppendHandover() {
	s.Run("appends with continuity from the last holder", func() {
		err := s.sut.AppendHandover(orchestrator, carrier1, pharmacy, domain.CategoryPharmacy, 2000, nil)
		s.Require().NoError(err)

		s.Equal(2, s.sut.HandoverCount())
		h, err := s.sut.HandoverAt(1)
		s.Require().NoError(err)
		s.Equal(Participant{ID: carrier1, Category: domain.CategoryCarrier}, h.From)
		s.Equal(Participant{ID: pharmacy, Category: domain.CategoryPharmacy}, h.To)
		s.Equal(int64(2000), h.At)
	})

	s.Run("rejects callers other than the authority", func() {
		err := s.sut.AppendHandover(stranger, carrier1, pharmacy, domain.CategoryPharmacy, 2000, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(1, s.sut.HandoverCount())
	})

	s.Run("rejects handover to a vendor", func() {
		err := s.sut.AppendHandover(orchestrator, carrier1, vendor, domain.CategoryVendor, 2000, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCategory))
	})

	s.Run("rejects unknown category", func() {
		err := s.sut.AppendHandover(orchestrator, carrier1, pharmacy, domain.ParticipantCategory("smuggler"), 2000, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCategory))
	})

	s.Run("rejects handovers not initiated by the current holder", func() {
		err := s.sut.AppendHandover(orchestrator, stranger, pharmacy, domain.CategoryPharmacy, 2000, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotCurrentHolder))
	})

	s.Run("rejects inline conditions on the drug variant", func() {
		cond := TransitConditions{Temperature: -19, Category: domain.CarrierTruck}
		err := s.sut.AppendHandover(orchestrator, carrier1, pharmacy, domain.CategoryPharmacy, 2000, &cond)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("blocks a handover while the carried leg has no logged conditions", func() {
		s.Require().NoError(s.sut.AppendHandover(orchestrator, carrier1, carrier2, domain.CategoryCarrier, 2000, nil))

		err := s.sut.AppendHandover(orchestrator, carrier2, pharmacy, domain.CategoryPharmacy, 3000, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingConditions))

		s.Require().NoError(s.sut.RecordConditions(carrier1, carrier1, carrier2, 2000, -19, domain.CarrierTruck))
		s.Require().NoError(s.sut.AppendHandover(orchestrator, carrier2, pharmacy, domain.CategoryPharmacy, 3000, nil))
		s.Equal(3, s.sut.HandoverCount())
	})
}

func (s *DrugLedgerSuite) TestRecordConditions() {
	s.Require().NoError(s.sut.AppendHandover(orchestrator, carrier1, pharmacy, domain.CategoryPharmacy, 2000, nil))

	s.Run("logs conditions for the last handover", func() {
		err := s.sut.RecordConditions(carrier1, carrier1, pharmacy, 2000, -19, domain.CarrierTruck)
		s.Require().NoError(err)
		s.Equal(
			TransitConditions{Temperature: -19, Category: domain.CarrierTruck},
			s.sut.ConditionsFor(carrier1, pharmacy, 2000),
		)
	})

	s.Run("overwrites on re-log of the same key", func() {
		s.Require().NoError(s.sut.RecordConditions(carrier1, carrier1, pharmacy, 2000, -21, domain.CarrierShip))
		s.Equal(
			TransitConditions{Temperature: -21, Category: domain.CarrierShip},
			s.sut.ConditionsFor(carrier1, pharmacy, 2000),
		)
	})

	s.Run("rejects a from identity not matching the last handover", func() {
		err := s.sut.RecordConditions(stranger, stranger, pharmacy, 2000, -19, domain.CarrierTruck)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidConditionsTarget))
	})

	s.Run("rejects a to identity not matching the last handover", func() {
		err := s.sut.RecordConditions(carrier1, carrier1, stranger, 2000, -19, domain.CarrierTruck)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidConditionsTarget))
	})

	s.Run("rejects a timestamp not matching the last handover", func() {
		err := s.sut.RecordConditions(carrier1, carrier1, pharmacy, 999999, -19, domain.CarrierTruck)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidConditionsTarget))
	})

	s.Run("rejects callers other than the leg's carrier", func() {
		err := s.sut.RecordConditions(stranger, carrier1, pharmacy, 2000, -19, domain.CarrierTruck)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects unknown carrier category", func() {
		err := s.sut.RecordConditions(carrier1, carrier1, pharmacy, 2000, -19, domain.CarrierCategory("bicycle"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCategory))
	})
}

func (s *DrugLedgerSuite) TestReads() {
	s.Run("last handover after creation", func() {
		h := s.sut.LastHandover()
		s.Equal(carrier1, h.To.ID)
		s.Equal(int64(1000), h.At)
	})

	s.Run("last handover after a sequence", func() {
		s.Require().NoError(s.sut.AppendHandover(orchestrator, carrier1, pharmacy, domain.CategoryPharmacy, 2000, nil))
		h := s.sut.LastHandover()
		s.Equal(pharmacy, h.To.ID)
		s.Equal(int64(2000), h.At)
	})

	s.Run("index out of range", func() {
		_, err := s.sut.HandoverAt(s.sut.HandoverCount())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeIndexOutOfRange))

		_, err = s.sut.HandoverAt(-1)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeIndexOutOfRange))
	})

	s.Run("chain continuity", func() {
		for i := 0; i < s.sut.HandoverCount()-1; i++ {
			cur, err := s.sut.HandoverAt(i)
			s.Require().NoError(err)
			next, err := s.sut.HandoverAt(i + 1)
			s.Require().NoError(err)
			s.Equal(cur.To, next.From)
		}
	})
}

func (s *DrugLedgerSuite) TestSnapshotRoundTrip() {
	s.Require().NoError(s.sut.AppendHandover(orchestrator, carrier1, pharmacy, domain.CategoryPharmacy, 2000, nil))
	s.Require().NoError(s.sut.RecordConditions(carrier1, carrier1, pharmacy, 2000, -19, domain.CarrierTruck))

	snap := s.sut.Snapshot()
	restored, err := Rehydrate(snap)
	s.Require().NoError(err)

	s.Equal(s.sut.HandoverCount(), restored.HandoverCount())
	s.Equal(s.sut.LastHandover(), restored.LastHandover())
	s.Equal(s.sut.ConditionsFor(carrier1, pharmacy, 2000), restored.ConditionsFor(carrier1, pharmacy, 2000))
	s.Equal(s.sut.Authority(), restored.Authority())

	_, err = Rehydrate(Snapshot{Variant: VariantDrug, AssetID: testAssetID})
	s.Require().Error(err)
}

type ParcelLedgerSuite struct {
	suite.Suite
	sut *Ledger
}

func TestParcelLedgerSuite(t *testing.T) {
	suite.Run(t, new(ParcelLedgerSuite))
}

const (
	producer    = domain.Identity("0x00000000000000000000000000000000000000b1")
	transporter = domain.Identity("0x00000000000000000000000000000000000000b2")
)

func (s *ParcelLedgerSuite) SetupTest() {
	l, err := New(VariantParcel, testAssetID, producer, transporter, domain.CategoryTransporter, orchestrator, 1000)
	s.Require().NoError(err)
	s.sut = l
}

func (s *ParcelLedgerSuite) TestCreate() {
	s.Run("origin category is producer", func() {
		s.Equal(Participant{ID: producer, Category: domain.CategoryProducer}, s.sut.Origin())
	})

	s.Run("rejects carrier category from the drug variant", func() {
		_, err := New(VariantParcel, testAssetID, producer, transporter, domain.CategoryCarrier, orchestrator, 1000)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCategory))
	})

	s.Run("allows pharmacy receiver", func() {
		l, err := New(VariantParcel, testAssetID, producer, pharmacy, domain.CategoryPharmacy, orchestrator, 1000)
		s.Require().NoError(err)
		s.Equal(domain.CategoryPharmacy, l.CurrentHolder().Category)
	})
}

func (s *ParcelLedgerSuite) TestAppendHandover() {
	s.Run("records conditions inline with the transfer", func() {
		cond := TransitConditions{Temperature: -19, Category: domain.CarrierTruck}
		err := s.sut.AppendHandover(orchestrator, transporter, pharmacy, domain.CategoryPharmacy, 2000, &cond)
		s.Require().NoError(err)
		s.Equal(cond, s.sut.ConditionsFor(transporter, pharmacy, 2000))
	})

	s.Run("conditions are optional", func() {
		err := s.sut.AppendHandover(orchestrator, transporter, pharmacy, domain.CategoryPharmacy, 2000, nil)
		s.Require().NoError(err)
		s.Equal(DefaultConditions, s.sut.ConditionsFor(transporter, pharmacy, 2000))
	})

	s.Run("no conditions gate on the parcel variant", func() {
		s.Require().NoError(s.sut.AppendHandover(orchestrator, transporter, stranger, domain.CategoryTransporter, 2000, nil))
		s.Require().NoError(s.sut.AppendHandover(orchestrator, stranger, pharmacy, domain.CategoryPharmacy, 3000, nil))
		s.Equal(3, s.sut.HandoverCount())
	})

	s.Run("separate conditions call is rejected", func() {
		err := s.sut.RecordConditions(transporter, producer, transporter, 1000, -19, domain.CarrierTruck)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
