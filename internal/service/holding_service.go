package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/apperrors"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/holdings"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/metrics"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/money"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/pricing"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/rates"
	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/repository"
)

// PriceOracle supplies current prices for domestic codes. Quotes never
// fails; codes it cannot price are absent from the result.
type PriceOracle interface {
	Quotes(ctx context.Context, reqs []pricing.Request, refresh bool) map[string]model.Quote
	Invalidate(ctx context.Context, codes ...string)
}

// HoldingService projects a user's ledger into valued positions. Nothing
// is persisted; every call recomputes from the ledger, the user's fee
// settings and a price snapshot.
type HoldingService struct {
	transactionRepo *repository.TransactionRepository
	settingsRepo    *repository.SettingsRepository
	accountRepo     *repository.AccountRepository
	oracle          PriceOracle
	clock           pricing.Clock
	location        *time.Location
	logger          *zap.Logger
}

// NewHoldingService creates a new HoldingService. location is the market
// timezone that defines "today" for same-day and interest rules.
func NewHoldingService(
	transactionRepo *repository.TransactionRepository,
	settingsRepo *repository.SettingsRepository,
	accountRepo *repository.AccountRepository,
	oracle PriceOracle,
	clock pricing.Clock,
	location *time.Location,
	logger *zap.Logger,
) *HoldingService {
	if clock == nil {
		clock = pricing.SystemClock{}
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HoldingService{
		transactionRepo: transactionRepo,
		settingsRepo:    settingsRepo,
		accountRepo:     accountRepo,
		oracle:          oracle,
		clock:           clock,
		location:        location,
		logger:          logger,
	}
}

// HoldingsQuery narrows a holdings request.
type HoldingsQuery struct {
	// SecuritiesAccountID limits to one account; "null" selects
	// transactions without an account.
	SecuritiesAccountID string
	// StockCode is matched as a substring.
	StockCode string
	// Refresh evicts cached quotes for the codes in scope.
	Refresh bool
}

// DetailsQuery narrows a lot-detail request.
type DetailsQuery struct {
	SecuritiesAccountID string
	StockCode           string
	// IncludeMargin adds margin-financing buys and margin-short opens.
	IncludeMargin bool
}

// GetHoldings values every open position in scope.
//
// Price precedence per position: a manual price, then the oracle quote
// (domestic codes only), then the price of the position's most recent
// transaction.
func (s *HoldingService) GetHoldings(ctx context.Context, userID string, q HoldingsQuery) (model.HoldingsResult, error) {
	txns, err := s.transactionRepo.ListForHoldings(ctx, userID, model.TransactionFilter{
		SecuritiesAccountID: q.SecuritiesAccountID,
		StockCode:           q.StockCode,
	})
	if err != nil {
		return model.HoldingsResult{}, fmt.Errorf("failed to load ledger: %w", err)
	}

	cfg, err := s.rateConfig(ctx, userID)
	if err != nil {
		return model.HoldingsResult{}, err
	}

	manual, err := s.settingsRepo.GetManualPrices(ctx, userID)
	if err != nil {
		return model.HoldingsResult{}, fmt.Errorf("failed to load manual prices: %w", err)
	}

	today := holdings.Today(s.clock.Now(), s.location)
	book := holdings.Scan(txns, cfg, today)

	quotes := map[string]model.Quote{}
	if instruments := book.Instruments(); len(instruments) > 0 && s.oracle != nil {
		quotes = s.oracle.Quotes(ctx, toRequests(instruments), q.Refresh)
	}

	lookup := func(g *holdings.Group) (model.Quote, bool) {
		if mp, ok := manual[model.ManualPriceKey(g.Key.Account, g.Key.Code, g.Key.Kind.String())]; ok {
			return model.Quote{Price: mp.Price, Source: model.PriceSourceManual, UpdatedAt: mp.UpdatedAt}, true
		}
		if !g.Key.Domestic {
			return model.Quote{}, false
		}
		quote, ok := quotes[g.Key.Code]
		return quote, ok
	}

	result := holdings.Value(book, lookup, cfg, today)

	metrics.HoldingsComputed.WithLabelValues("holdings").Inc()
	metrics.HoldingsPositions.Observe(float64(len(result.Data)))
	return result, nil
}

// GetLotDetails lists the still-open remainder of each opening
// transaction in scope. Only domestic transactions are considered.
func (s *HoldingService) GetLotDetails(ctx context.Context, userID string, q DetailsQuery) ([]model.LotDetail, error) {
	txns, err := s.transactionRepo.ListForHoldings(ctx, userID, model.TransactionFilter{
		SecuritiesAccountID: q.SecuritiesAccountID,
		StockCode:           q.StockCode,
		DomesticOnly:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	cfg, err := s.rateConfig(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := holdings.Today(s.clock.Now(), s.location)
	details := holdings.LotDetails(txns, cfg, today, holdings.DetailOptions{IncludeMargin: q.IncludeMargin})
	if details == nil {
		details = []model.LotDetail{}
	}

	metrics.HoldingsComputed.WithLabelValues("details").Inc()
	return details, nil
}

// SetManualPrice stores a manual price for one position and evicts the
// code's cached quote. The price is rounded to 2 decimals.
//
// Returns:
//   - apperrors.ErrInvalidPrice when the price is not positive
//   - apperrors.ErrInvalidPositionKind for an unknown transaction type
//   - apperrors.ErrAccountNotFound when the account is not the user's
func (s *HoldingService) SetManualPrice(ctx context.Context, userID string, mp model.ManualPrice) (model.ManualPrice, error) {
	if mp.Price <= 0 {
		return model.ManualPrice{}, apperrors.ErrInvalidPrice
	}
	if err := s.checkPosition(ctx, userID, mp.SecuritiesAccountID, mp.StockCode, &mp.TransactionType); err != nil {
		return model.ManualPrice{}, err
	}

	mp.Price = money.Float(money.Round2(money.FromFloat(mp.Price)))
	if mp.Price <= 0 {
		return model.ManualPrice{}, apperrors.ErrInvalidPrice
	}
	mp.UpdatedAt = s.clock.Now().UTC().Truncate(time.Second)

	if err := s.settingsRepo.UpsertManualPrice(ctx, userID, mp); err != nil {
		return model.ManualPrice{}, err
	}
	if s.oracle != nil {
		s.oracle.Invalidate(ctx, mp.StockCode)
	}
	return mp, nil
}

// ClearManualPrice removes a manual price so the position is priced by
// the oracle again. Clearing an absent price succeeds.
func (s *HoldingService) ClearManualPrice(ctx context.Context, userID, accountID, stockCode, kind string) error {
	if err := s.checkPosition(ctx, userID, accountID, stockCode, &kind); err != nil {
		return err
	}
	if err := s.settingsRepo.DeleteManualPrice(ctx, userID, model.ManualPriceKey(accountID, stockCode, kind)); err != nil {
		return err
	}
	if s.oracle != nil {
		s.oracle.Invalidate(ctx, stockCode)
	}
	return nil
}

// WarmQuotes refreshes the quote cache for every domestic code any user
// currently holds. It returns the number of codes requested.
func (s *HoldingService) WarmQuotes(ctx context.Context) (int, error) {
	if s.oracle == nil {
		return 0, nil
	}
	users, err := s.transactionRepo.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	today := holdings.Today(s.clock.Now(), s.location)
	cfg := rates.Default()
	var instruments []model.Instrument
	for _, userID := range users {
		txns, err := s.transactionRepo.ListForHoldings(ctx, userID, model.TransactionFilter{DomesticOnly: true})
		if err != nil {
			return 0, fmt.Errorf("failed to load ledger: %w", err)
		}
		instruments = append(instruments, holdings.Scan(txns, cfg, today).Instruments()...)
	}

	reqs := toRequests(instruments)
	if len(reqs) == 0 {
		return 0, nil
	}
	quotes := s.oracle.Quotes(ctx, reqs, false)
	s.logger.Debug("quote cache warmed", zap.Int("requested", len(reqs)), zap.Int("priced", len(quotes)))
	return len(reqs), nil
}

// rateConfig resolves the user's fee settings. Malformed settings fall
// back to the defaults.
func (s *HoldingService) rateConfig(ctx context.Context, userID string) (rates.Config, error) {
	settings, err := s.settingsRepo.GetFeeSettings(ctx, userID)
	if errors.Is(err, apperrors.ErrMalformedSetting) {
		s.logger.Warn("fee settings unreadable, using defaults", zap.String("user_id", userID), zap.Error(err))
		return rates.Default(), nil
	}
	if err != nil {
		return rates.Config{}, fmt.Errorf("failed to load fee settings: %w", err)
	}
	return rates.Resolve(settings), nil
}

// checkPosition validates the identifying parts of a manual price. An
// empty kind defaults to cash.
func (s *HoldingService) checkPosition(ctx context.Context, userID, accountID, stockCode string, kind *string) error {
	if strings.TrimSpace(stockCode) == "" {
		return apperrors.ErrInvalidStockCode
	}
	if *kind == "" {
		*kind = model.KindCash
	}
	if _, ok := holdings.ParseKind(*kind); !ok {
		return apperrors.ErrInvalidPositionKind
	}
	if accountID == "null" {
		return nil
	}
	if _, err := s.accountRepo.GetAccount(ctx, userID, accountID); err != nil {
		return err
	}
	return nil
}

// toRequests deduplicates instruments by code, keeping the first market
// type that is not empty.
func toRequests(instruments []model.Instrument) []pricing.Request {
	index := make(map[string]int, len(instruments))
	reqs := make([]pricing.Request, 0, len(instruments))
	for _, in := range instruments {
		if i, ok := index[in.Code]; ok {
			if reqs[i].MarketHint == "" {
				reqs[i].MarketHint = in.MarketType
			}
			continue
		}
		index[in.Code] = len(reqs)
		reqs = append(reqs, pricing.Request{Code: in.Code, MarketHint: in.MarketType})
	}
	return reqs
}
