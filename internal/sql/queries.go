package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/insert_model_version.sql
var InsertModelVersion string

//go:embed queries/deactivate_other_versions.sql
var DeactivateOtherVersions string

//go:embed queries/activate_version.sql
var ActivateVersion string

//go:embed queries/select_active_version.sql
var SelectActiveVersion string

//go:embed queries/select_version.sql
var SelectVersion string

//go:embed queries/select_schema_features.sql
var SelectSchemaFeatures string

//go:embed queries/delete_score_batch.sql
var DeleteScoreBatch string
