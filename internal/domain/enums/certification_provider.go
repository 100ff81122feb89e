package enums

type CertificationProvider string

const (
	ProviderAWS       CertificationProvider = "aws"
	ProviderAzure     CertificationProvider = "azure"
	ProviderGCP       CertificationProvider = "gcp"
	ProviderSnowflake CertificationProvider = "snowflake"
)

func (p CertificationProvider) Valid() bool {
	switch p {
	case ProviderAWS, ProviderAzure, ProviderGCP, ProviderSnowflake:
		return true
	default:
		return false
	}
}
