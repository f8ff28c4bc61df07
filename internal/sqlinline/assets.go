package sqlinline

const QInsertAsset = `--sql 9d57b3e1-06f2-4c88-ae14-72a9c05d3b6f
insert into design_assets (design_id, kind, storage_key, mime, bytes, provider)
values ($1::uuid, $2, $3, $4, $5, $6)
returning id, created_at;
`

const QSelectAssetsByDesign = `--sql 40ac82f6-d1b9-4e57-9320-c56e17d8fa04
select id, kind, storage_key, mime, bytes, provider, created_at
from design_assets
where design_id = $1::uuid
order by created_at asc;
`

const QSelectAssetByID = `--sql 68e1f5a9-23c4-4d07-8b6a-f90d34c7e215
select id, design_id, kind, storage_key, mime, bytes, provider
from design_assets
where id = $1::uuid;
`
