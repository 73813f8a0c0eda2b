package service

import (
	"fmt"
	"math/bits"

	"github.com/prodoxx/myqa-is/internal/errs"
)

// PrimarySplit divides a mint price between platform and creator.
type PrimarySplit struct {
	PlatformFee    uint64
	CreatorPayment uint64
}

// ResaleSplit divides a resale price between platform, creator and seller.
type ResaleSplit struct {
	PlatformFee    uint64
	CreatorRoyalty uint64
	SellerPayment  uint64
}

// SplitPrimary computes the mint split. The creator receives the remainder,
// so the parts always sum to price.
func SplitPrimary(price uint64, platformFeeBps uint16) (PrimarySplit, error) {
	if price == 0 {
		return PrimarySplit{}, errs.ErrInvalidPrice
	}
	platform, err := bpsOf(price, platformFeeBps)
	if err != nil {
		return PrimarySplit{}, err
	}
	creator, err := checkedSub(price, platform)
	if err != nil {
		return PrimarySplit{}, err
	}
	return PrimarySplit{PlatformFee: platform, CreatorPayment: creator}, nil
}

// SplitResale computes the resale split. Platform fee and royalty are floored
// independently and the seller absorbs the rounding remainder.
func SplitResale(price uint64, platformFeeBps, creatorRoyaltyBps uint16) (ResaleSplit, error) {
	if price == 0 {
		return ResaleSplit{}, errs.ErrInvalidPrice
	}
	platform, err := bpsOf(price, platformFeeBps)
	if err != nil {
		return ResaleSplit{}, err
	}
	royalty, err := bpsOf(price, creatorRoyaltyBps)
	if err != nil {
		return ResaleSplit{}, err
	}
	seller, err := checkedSub(price, platform)
	if err != nil {
		return ResaleSplit{}, err
	}
	seller, err = checkedSub(seller, royalty)
	if err != nil {
		return ResaleSplit{}, err
	}
	return ResaleSplit{PlatformFee: platform, CreatorRoyalty: royalty, SellerPayment: seller}, nil
}

// bpsOf returns floor(amount * bps / 10000).
func bpsOf(amount uint64, bps uint16) (uint64, error) {
	hi, lo := bits.Mul64(amount, uint64(bps))
	if hi != 0 {
		return 0, fmt.Errorf("%d * %d bps: %w", amount, bps, errs.ErrNumericalOverflow)
	}
	return lo / BasisPointsDenominator, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%d + %d: %w", a, b, errs.ErrNumericalOverflow)
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, fmt.Errorf("%d - %d: %w", a, b, errs.ErrNumericalOverflow)
	}
	return diff, nil
}
