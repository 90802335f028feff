// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package toolconfig

// DefaultTools is the catalog used when the configuration declares none.
func DefaultTools() []AvailableTool {
	return []AvailableTool{
		{
			ID:           "google-search",
			Name:         "Google Search",
			Icon:         "search",
			FunctionName: "google_search",
			Description:  "Grounds answers with Google Search results.",
		},
		{
			ID:           "code-execution",
			Name:         "Code Execution",
			Icon:         "terminal",
			FunctionName: "built_in_code_execution",
			Description:  "Runs generated Python in a sandbox.",
		},
		{
			ID:           "weather",
			Name:         "Weather",
			Icon:         "cloud",
			FunctionName: "get_weather",
			Description:  "Current conditions and forecasts for a location.",
			ConfigFields: []ConfigField{
				{Key: "units", Label: "Units", FieldType: FieldSelect, Required: true, Options: []string{"metric", "imperial"}},
				{Key: "defaultLocation", Label: "Default location", FieldType: FieldText, Placeholder: "e.g. Berlin"},
			},
		},
		{
			ID:           "web-search",
			Name:         "Web Search",
			Icon:         "globe",
			FunctionName: "web_search",
			Description:  "Searches the web through a third-party search API.",
			RequiresAuth: true,
			ServiceType:  "search",
			ConfigFields: []ConfigField{
				{Key: "apiKey", Label: "API key", FieldType: FieldSecret, Required: true},
				{Key: "region", Label: "Region", FieldType: FieldText, Placeholder: "e.g. us-east"},
				{Key: "maxResults", Label: "Max results", FieldType: FieldNumber, Placeholder: "10"},
			},
		},
		{
			ID:           "calendar",
			Name:         "Calendar",
			Icon:         "calendar",
			FunctionName: "calendar_events",
			Description:  "Reads and creates calendar events.",
			RequiresAuth: true,
			ServiceType:  "calendar",
			ConfigFields: []ConfigField{
				{Key: "token", Label: "Access token", FieldType: FieldSecret, Required: true},
				{Key: "calendarId", Label: "Calendar ID", FieldType: FieldText, Required: true, Placeholder: "<calendar-id>"},
				{Key: "readOnly", Label: "Read only", FieldType: FieldBoolean},
			},
		},
		{
			ID:           "http-request",
			Name:         "HTTP Request",
			Icon:         "link",
			FunctionName: "http_request",
			Description:  "Calls a fixed HTTP endpoint.",
			ConfigFields: []ConfigField{
				{Key: "baseUrl", Label: "Base URL", FieldType: FieldURL, Required: true, Placeholder: "https://api.example.com"},
				{Key: "timeoutSeconds", Label: "Timeout (seconds)", FieldType: FieldNumber},
			},
		},
	}
}
