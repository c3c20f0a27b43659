package enkap

// Version of this client library, reported in the default User-Agent
const Version string = "1.0.0"

const (
	LiveURL    string = "https://api-v2.enkap.cm"
	SandboxURL string = "https://api.enkap-staging.maviance.info"

	APIVersion string = "v1.2"

	// ResourcePrefix is prepended to the resource uri of every model
	ResourcePrefix string = "/purchase/" + APIVersion
)

// BaseURL returns the api root for the selected environment
func BaseURL(sandbox bool) string {
	if sandbox {
		return SandboxURL
	}
	return LiveURL
}
