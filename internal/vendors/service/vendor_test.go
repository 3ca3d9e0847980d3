package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/siteops/siteops-backend/internal/vendors/service"
)

func TestValidDocumentType(t *testing.T) {
	assert.True(t, service.ValidDocumentType(service.DocumentInsurance))
	assert.True(t, service.ValidDocumentType(service.DocumentLicense))
	assert.True(t, service.ValidDocumentType(service.DocumentCertification))
	assert.False(t, service.ValidDocumentType("permit"))
	assert.False(t, service.ValidDocumentType(""))
}
