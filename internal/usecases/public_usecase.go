package usecases

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
	"kaiapay.backend/pkg/utils"
)

// PublicUsecase serves unauthenticated on-chain reads
type PublicUsecase struct {
	pots     PotReader
	potToken common.Address
}

// NewPublicUsecase creates a new public usecase reading pots denominated in potToken
func NewPublicUsecase(pots PotReader, potToken common.Address) *PublicUsecase {
	return &PublicUsecase{pots: pots, potToken: potToken}
}

// PotInfo reads the savings pot of address
func (u *PublicUsecase) PotInfo(ctx context.Context, address string) (*entities.PotInfo, error) {
	if !common.IsHexAddress(address) {
		return nil, domainerrors.BadRequest("invalid address")
	}
	user := common.HexToAddress(address)

	pot, err := u.pots.GetPot(ctx, user, u.potToken)
	if err != nil {
		return nil, err
	}
	return &entities.PotInfo{
		Address:  user.Hex(),
		Balance:  utils.FormatUnits(pot.Balance, USDTDecimals),
		Raw:      pot.Balance.String(),
		Deadline: pot.Deadline.String(),
		Owner:    pot.Owner.Hex(),
	}, nil
}
