package rpc

import "github.com/spooky-finn/go-bsdex-bridge/domain"

type ValidationServiceConfig struct {
	// AvailableInstruments limits the markets served. Empty means every market.
	AvailableInstruments []domain.Instrument
}

type ValidationService struct {
	config *ValidationServiceConfig
}

func NewValidationService(config *ValidationServiceConfig) *ValidationService {
	return &ValidationService{
		config: config,
	}
}

func (s *ValidationService) IsSupportedInstrument(instrument domain.Instrument) bool {
	if s.config == nil || len(s.config.AvailableInstruments) == 0 {
		return true
	}

	for _, i := range s.config.AvailableInstruments {
		if i == instrument {
			return true
		}
	}
	return false
}
