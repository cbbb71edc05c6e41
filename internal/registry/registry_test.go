package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

const (
	admin  = domain.Identity("0x0000000000000000000000000000000000000ad1")
	vendor = domain.Identity("0x00000000000000000000000000000000000000a1")
	other  = domain.Identity("0x00000000000000000000000000000000000000a9")
)

type RegistrySuite struct {
	suite.Suite
	sut *Registry
	ctx context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.sut = New(admin, NewInMemoryStore())
	s.ctx = context.Background()
}

func (s *RegistrySuite) TestAdmin() {
	s.Equal(admin, s.sut.Admin())
}

func (s *RegistrySuite) TestRegister() {
	s.Run("admin registers an identity", func() {
		s.Require().NoError(s.sut.Register(s.ctx, admin, vendor))
		active, err := s.sut.IsActive(s.ctx, vendor)
		s.Require().NoError(err)
		s.True(active)
	})

	s.Run("registering an active identity is a no-op", func() {
		s.Require().NoError(s.sut.Register(s.ctx, admin, vendor))
		s.Require().NoError(s.sut.Register(s.ctx, admin, vendor))
		active, err := s.sut.IsActive(s.ctx, vendor)
		s.Require().NoError(err)
		s.True(active)
	})

	s.Run("non-admin cannot register", func() {
		err := s.sut.Register(s.ctx, other, vendor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *RegistrySuite) TestDeregister() {
	s.Require().NoError(s.sut.Register(s.ctx, admin, vendor))

	s.Run("admin deregisters an identity", func() {
		s.Require().NoError(s.sut.Deregister(s.ctx, admin, vendor))
		active, err := s.sut.IsActive(s.ctx, vendor)
		s.Require().NoError(err)
		s.False(active)
	})

	s.Run("deregistering an inactive identity is a no-op", func() {
		s.Require().NoError(s.sut.Deregister(s.ctx, admin, vendor))
		active, err := s.sut.IsActive(s.ctx, vendor)
		s.Require().NoError(err)
		s.False(active)
	})

	s.Run("non-admin cannot deregister", func() {
		err := s.sut.Deregister(s.ctx, other, vendor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *RegistrySuite) TestIsActiveDefaultsFalse() {
	active, err := s.sut.IsActive(s.ctx, other)
	s.Require().NoError(err)
	s.False(active)
}
