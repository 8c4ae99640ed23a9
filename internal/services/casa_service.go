package services

import (
	"fmt"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/database"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/pkg/validator"
	"github.com/sirupsen/logrus"
)

// CasaService handles lodging management
type CasaService struct {
	casaRepo         *database.CasaRepository
	codigoPostalRepo *database.CodigoPostalRepository
	normalizer       *validator.AddressNormalizer
	logger           *logrus.Logger
}

// NewCasaService creates a new CasaService
func NewCasaService(
	casaRepo *database.CasaRepository,
	codigoPostalRepo *database.CodigoPostalRepository,
	logger *logrus.Logger,
) *CasaService {
	return &CasaService{
		casaRepo:         casaRepo,
		codigoPostalRepo: codigoPostalRepo,
		normalizer:       validator.NewAddressNormalizer(),
		logger:           logger,
	}
}

// Create validates and registers a new lodging owned by the creating
// support account
func (s *CasaService) Create(ownerID int64, req *models.CasaRequest) (*models.Casa, error) {
	if err := req.Validate(); err != nil {
		return nil, validationf("%s", err.Error())
	}
	codigo, err := s.checkCodigoPostal(req.CodigoPostal)
	if err != nil {
		return nil, err
	}
	morada, err := s.checkDuplicateAddress(req.Morada, 0)
	if err != nil {
		return nil, err
	}

	casa := &models.Casa{
		Titulo:       req.Titulo,
		Descricao:    models.NewNullString(req.Descricao),
		Tipo:         req.Tipo,
		Tipologia:    req.Tipologia,
		Preco:        req.Preco,
		Morada:       morada,
		CodigoPostal: codigo,
		UtilizadorID: ownerID,
	}

	if err := s.casaRepo.Create(casa); err != nil {
		return nil, fmt.Errorf("failed to create casa: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"casa_id": casa.ID,
		"titulo":  casa.Titulo,
	}).Info("Casa created")

	return casa, nil
}

// Update validates and applies changes to an existing lodging
func (s *CasaService) Update(casaID int64, req *models.CasaRequest) (*models.Casa, error) {
	casa, err := s.casaRepo.GetByID(casaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get casa: %w", err)
	}
	if casa == nil {
		return nil, notFoundf("casa not found")
	}

	if err := req.Validate(); err != nil {
		return nil, validationf("%s", err.Error())
	}
	codigo, err := s.checkCodigoPostal(req.CodigoPostal)
	if err != nil {
		return nil, err
	}
	morada, err := s.checkDuplicateAddress(req.Morada, casaID)
	if err != nil {
		return nil, err
	}

	casa.Titulo = req.Titulo
	casa.Descricao = models.NewNullString(req.Descricao)
	casa.Tipo = req.Tipo
	casa.Tipologia = req.Tipologia
	casa.Preco = req.Preco
	casa.Morada = morada
	casa.CodigoPostal = codigo

	if err := s.casaRepo.Update(casa); err != nil {
		return nil, fmt.Errorf("failed to update casa: %w", err)
	}

	return casa, nil
}

// GetByID returns one lodging
func (s *CasaService) GetByID(casaID int64) (*models.Casa, error) {
	casa, err := s.casaRepo.GetByID(casaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get casa: %w", err)
	}
	if casa == nil {
		return nil, notFoundf("casa not found")
	}
	return casa, nil
}

// List returns all lodgings
func (s *CasaService) List() ([]models.Casa, error) {
	casas, err := s.casaRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list casas: %w", err)
	}
	return casas, nil
}

// Delete removes a lodging
func (s *CasaService) Delete(casaID int64) error {
	casa, err := s.casaRepo.GetByID(casaID)
	if err != nil {
		return fmt.Errorf("failed to get casa: %w", err)
	}
	if casa == nil {
		return notFoundf("casa not found")
	}

	rowsAffected, err := s.casaRepo.Delete(casaID)
	if err != nil {
		return fmt.Errorf("failed to delete casa: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundf("casa not found")
	}

	s.logger.WithField("casa_id", casaID).Info("Casa deleted")
	return nil
}

// checkCodigoPostal validates the postal code format and requires it to
// be present in the directory. Returns the trimmed code.
func (s *CasaService) checkCodigoPostal(codigo string) (string, error) {
	trimmed, err := validator.ValidatePostalCode(codigo)
	if err != nil {
		return "", validationf("%s", err.Error())
	}
	exists, err := s.codigoPostalRepo.Exists(trimmed)
	if err != nil {
		return "", fmt.Errorf("failed to check codigo postal: %w", err)
	}
	if !exists {
		return "", validationf("codigo postal %s is not registered", trimmed)
	}
	return trimmed, nil
}

// checkDuplicateAddress compares normalized forms so that case,
// accents, spacing and punctuation differences still collide. Returns
// the trimmed address.
func (s *CasaService) checkDuplicateAddress(morada string, excludeID int64) (string, error) {
	trimmed, err := s.normalizer.ValidateAddress(morada)
	if err != nil {
		return "", validationf("%s", err.Error())
	}

	existing, err := s.casaRepo.ListAddressesExcluding(excludeID)
	if err != nil {
		return "", fmt.Errorf("failed to list addresses: %w", err)
	}
	for _, addr := range existing {
		if s.normalizer.Equal(trimmed, addr) {
			return "", conflictf("a casa with this morada already exists")
		}
	}
	return trimmed, nil
}
