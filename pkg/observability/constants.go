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

package observability

const (
	AttrAgentType       = "agent.type"
	AttrAgentID         = "agent.id"
	AttrDocumentFormat  = "document.format"
	AttrOutcome         = "outcome"
	AttrErrorKind       = "error.kind"
	AttrErrorType       = "error.type"
	AttrSuggestField    = "suggest.field"
	AttrHTTPMethod      = "http.method"
	AttrHTTPRoute       = "http.route"
	AttrHTTPStatusCode  = "http.status_code"
	AttrHTTPRespSize    = "http.response_size"
	AttrValidationCount = "validation.error_count"

	SpanValidate    = "studio.validate"
	SpanImport      = "studio.import"
	SpanSave        = "studio.save"
	SpanSuggest     = "studio.suggest"
	SpanHTTPRequest = "http.request"

	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"

	DefaultServiceName  = "hector-studio"
	DefaultNamespace    = "hector_studio"
	DefaultOTLPEndpoint = "localhost:4317"
	DefaultMetricsPath  = "/metrics"
	DefaultSamplingRate = 1.0

	instrumentationName = "github.com/kadirpekel/hector-studio"
)
